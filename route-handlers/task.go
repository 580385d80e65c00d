package routehandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lakonic/taskdeck/auth"
	"github.com/lakonic/taskdeck/datastore"
	"github.com/lakonic/taskdeck/models"
	"github.com/lakonic/taskdeck/webutil"
)

type TaskHandler struct {
	Repo *datastore.TaskRepository
}

func NewTaskHandler(repo *datastore.TaskRepository) *TaskHandler {
	return &TaskHandler{Repo: repo}
}

// requestOwner returns the owner the middleware resolved for this
// request. Task routes are always mounted behind api.ResolveOwner, so a
// missing owner is a wiring bug, not a client error.
func requestOwner(r *http.Request) (models.Owner, error) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		return models.Owner{}, fmt.Errorf("no owner resolved for %s %s", r.Method, r.URL.Path)
	}
	return owner, nil
}

func taskIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, webutil.ErrBadRequest("Invalid task ID")
	}
	return id, nil
}

func (h *TaskHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) error {
	owner, err := requestOwner(r)
	if err != nil {
		return err
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page")) // invalid pages clamp to 1 downstream

	result, err := h.Repo.List(r.Context(), owner, datastore.ListQuery{
		Filter: query.Get("filter"),
		Search: query.Get("search"),
		Sort:   query.Get("sort"),
		Page:   page,
	})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, result)
	return nil
}

func (h *TaskHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) error {
	owner, err := requestOwner(r)
	if err != nil {
		return err
	}

	var requestData struct {
		Title string `json:"title"`
		Notes string `json:"notes"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	task, err := h.Repo.Create(r.Context(), owner, requestData.Title, requestData.Notes)
	if err != nil {
		if errors.Is(err, datastore.ErrEmptyTitle) {
			return webutil.ErrBadRequest("Title cannot be empty")
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, task)
	return nil
}

func (h *TaskHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) error {
	owner, err := requestOwner(r)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(r)
	if err != nil {
		return err
	}

	task, err := h.Repo.Get(r.Context(), owner, taskID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrNotFound("Task not found")
		}
		return fmt.Errorf("failed to retrieve task %d: %w", taskID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, task)
	return nil
}

func (h *TaskHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) error {
	owner, err := requestOwner(r)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(r)
	if err != nil {
		return err
	}

	var requestData struct {
		Title string `json:"title"`
		Notes string `json:"notes"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	task, err := h.Repo.Update(r.Context(), owner, taskID, requestData.Title, requestData.Notes)
	if err != nil {
		switch {
		case errors.Is(err, datastore.ErrEmptyTitle):
			return webutil.ErrBadRequest("Title cannot be empty")
		case errors.Is(err, datastore.ErrNotFound):
			return webutil.ErrNotFound("Task not found")
		}
		return fmt.Errorf("failed to update task %d: %w", taskID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, task)
	return nil
}

func (h *TaskHandler) HandleToggleTask(w http.ResponseWriter, r *http.Request) error {
	owner, err := requestOwner(r)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(r)
	if err != nil {
		return err
	}

	task, err := h.Repo.ToggleCompleted(r.Context(), owner, taskID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrNotFound("Task not found")
		}
		return fmt.Errorf("failed to toggle task %d: %w", taskID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, task)
	return nil
}

func (h *TaskHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) error {
	owner, err := requestOwner(r)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(r)
	if err != nil {
		return err
	}

	if err := h.Repo.Delete(r.Context(), owner, taskID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrNotFound("Task not found")
		}
		return fmt.Errorf("failed to delete task %d: %w", taskID, err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
