package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lakonic/taskdeck/models"
)

// TasksPerPage is the fixed page size for task listings.
const TasksPerPage = 5

// Recognized values for ListQuery.Filter. Anything else behaves as
// FilterAll.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterCompleted = "completed"
)

// Recognized values for ListQuery.Sort. Anything else behaves as
// SortCreatedDesc.
const (
	SortCreatedDesc = "created_desc"
	SortCreatedAsc  = "created_asc"
	SortTitleAsc    = "title_asc"
	SortTitleDesc   = "title_desc"
)

var taskSortColumns = map[string]string{
	SortCreatedDesc: "created_at DESC, id DESC",
	SortCreatedAsc:  "created_at ASC, id ASC",
	SortTitleAsc:    "title ASC, id ASC",
	SortTitleDesc:   "title DESC, id DESC",
}

// ListQuery carries the listing controls as they arrive from the
// request. Unrecognized filter and sort values normalize to their
// defaults; out-of-range pages clamp into [1, total_pages].
type ListQuery struct {
	Filter string
	Search string
	Sort   string
	Page   int
}

// TaskPage is one page of a task listing plus the totals needed to
// render pagination controls.
type TaskPage struct {
	Tasks      []models.Task `json:"tasks"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	PerPage    int           `json:"per_page"`
}

// TaskRepository handles database operations for tasks. Every operation
// takes a models.Owner and scopes its query through ownerPredicate;
// there is no way to reach a task row without it.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ownerPredicate returns the mandatory scope condition applied to every
// task query. This is the sole access-control mechanism: a row invisible
// under this predicate does not exist as far as the caller can tell.
func ownerPredicate(owner models.Owner) (string, any) {
	if owner.IsUser() {
		return "user_id = ?", owner.UserID
	}
	return "guest_id = ?", owner.GuestID
}

// Create inserts a new task for the owner. The title must be non-empty
// after trimming; notes are optional. New tasks start incomplete.
func (r *TaskRepository) Create(ctx context.Context, owner models.Owner, title, notes string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	notes = strings.TrimSpace(notes)

	task := models.Task{
		Title:     title,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	// Exactly one of the owner columns is set; the schema's CHECK
	// constraint rejects anything else.
	var userID, guestID any
	if owner.IsUser() {
		uid := owner.UserID
		userID = uid
		task.UserID = &uid
	} else {
		gid := owner.GuestID
		guestID = gid
		task.GuestID = &gid
	}

	query := `
		INSERT INTO tasks (user_id, guest_id, title, notes, completed, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`
	result, err := r.db.ExecContext(ctx, query, userID, guestID, task.Title, task.Notes, task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	task.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted task id: %w", err)
	}
	return &task, nil
}

// List returns one page of the owner's tasks matching the query, plus
// the total match count. The slice and the count come from the same
// predicate, so pagination controls always agree with the page content.
func (r *TaskRepository) List(ctx context.Context, owner models.Owner, q ListQuery) (*TaskPage, error) {
	ownerSQL, ownerArg := ownerPredicate(owner)
	whereParts := []string{ownerSQL}
	args := []any{ownerArg}

	switch q.Filter {
	case FilterActive:
		whereParts = append(whereParts, "completed = 0")
	case FilterCompleted:
		whereParts = append(whereParts, "completed = 1")
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		// LIKE is case-insensitive for ASCII in SQLite.
		whereParts = append(whereParts, "(title LIKE ? OR notes LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	whereSQL := "WHERE " + strings.Join(whereParts, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks "+whereSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	totalPages := (total + TasksPerPage - 1) / TasksPerPage

	page := q.Page
	if page < 1 {
		page = 1
	}
	// Pages past the end clamp to the last page with content; an empty
	// result set stays on page 1.
	if totalPages == 0 {
		page = 1
	} else if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * TasksPerPage

	orderBy, ok := taskSortColumns[q.Sort]
	if !ok {
		orderBy = taskSortColumns[SortCreatedDesc]
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, guest_id, title, notes, completed, created_at
		FROM tasks
		%s
		ORDER BY %s
		LIMIT ? OFFSET ?
	`, whereSQL, orderBy)

	rows, err := r.db.QueryContext(ctx, query, append(args, TasksPerPage, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return &TaskPage{
		Tasks:      tasks,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		PerPage:    TasksPerPage,
	}, nil
}

// Get retrieves one of the owner's tasks by id. Returns ErrNotFound when
// no row matches both the id and the owner predicate.
func (r *TaskRepository) Get(ctx context.Context, owner models.Owner, taskID int64) (*models.Task, error) {
	ownerSQL, ownerArg := ownerPredicate(owner)
	query := fmt.Sprintf(`
		SELECT id, user_id, guest_id, title, notes, completed, created_at
		FROM tasks
		WHERE id = ? AND %s
	`, ownerSQL)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, taskID, ownerArg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Update replaces the title and notes of one of the owner's tasks,
// leaving completion state and creation time untouched. Returns the
// updated task.
func (r *TaskRepository) Update(ctx context.Context, owner models.Owner, taskID int64, title, notes string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	notes = strings.TrimSpace(notes)

	ownerSQL, ownerArg := ownerPredicate(owner)
	query := fmt.Sprintf(`
		UPDATE tasks
		SET title = ?, notes = ?
		WHERE id = ? AND %s
	`, ownerSQL)

	result, err := r.db.ExecContext(ctx, query, title, notes, taskID, ownerArg)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := requireAffectedRow(result); err != nil {
		return nil, err
	}
	return r.Get(ctx, owner, taskID)
}

// ToggleCompleted flips the completion state of one of the owner's
// tasks and returns the updated task. The flip happens inside the
// UPDATE statement, so concurrent toggles of the same task cannot lose
// each other's writes.
func (r *TaskRepository) ToggleCompleted(ctx context.Context, owner models.Owner, taskID int64) (*models.Task, error) {
	ownerSQL, ownerArg := ownerPredicate(owner)
	query := fmt.Sprintf(`
		UPDATE tasks
		SET completed = CASE completed WHEN 0 THEN 1 ELSE 0 END
		WHERE id = ? AND %s
	`, ownerSQL)

	result, err := r.db.ExecContext(ctx, query, taskID, ownerArg)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}
	if err := requireAffectedRow(result); err != nil {
		return nil, err
	}
	return r.Get(ctx, owner, taskID)
}

// Delete removes one of the owner's tasks. Returns ErrNotFound when the
// owner-scoped row does not exist.
func (r *TaskRepository) Delete(ctx context.Context, owner models.Owner, taskID int64) error {
	ownerSQL, ownerArg := ownerPredicate(owner)
	query := fmt.Sprintf("DELETE FROM tasks WHERE id = ? AND %s", ownerSQL)

	result, err := r.db.ExecContext(ctx, query, taskID, ownerArg)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffectedRow(result)
}

// ClaimGuestTasks re-owns every task held by the guest token to the
// user and returns how many moved. The single UPDATE runs as one
// transaction; after it commits the token matches zero rows, so a
// retried claim is a no-op.
func (r *TaskRepository) ClaimGuestTasks(ctx context.Context, guestToken string, userID int64) (int64, error) {
	if guestToken == "" {
		return 0, nil
	}
	query := `
		UPDATE tasks
		SET user_id = ?, guest_id = NULL
		WHERE guest_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, userID, guestToken)
	if err != nil {
		return 0, fmt.Errorf("failed to claim guest tasks: %w", err)
	}
	claimed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count claimed tasks: %w", err)
	}
	return claimed, nil
}

func requireAffectedRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		task    models.Task
		userID  sql.NullInt64
		guestID sql.NullString
		notes   sql.NullString
	)
	err := row.Scan(&task.ID, &userID, &guestID, &task.Title, &notes, &task.Completed, &task.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		task.UserID = &userID.Int64
	}
	if guestID.Valid {
		task.GuestID = &guestID.String
	}
	task.Notes = notes.String
	return &task, nil
}
