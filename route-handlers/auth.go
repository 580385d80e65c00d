package routehandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lakonic/taskdeck/auth"
	"github.com/lakonic/taskdeck/datastore"
	"github.com/lakonic/taskdeck/models"
	"github.com/lakonic/taskdeck/session"
	"github.com/lakonic/taskdeck/webutil"
)

const msgInvalidCredentials = "Invalid email or password" // same message for unknown email and wrong password

type AuthHandler struct {
	Users    *datastore.UserRepository
	Sessions *session.Manager
	Claimer  *auth.GuestClaimer
}

func NewAuthHandler(users *datastore.UserRepository, sessions *session.Manager, claimer *auth.GuestClaimer) *AuthHandler {
	return &AuthHandler{Users: users, Sessions: sessions, Claimer: claimer}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var requestData credentialsRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return requestData, webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	requestData.Email = datastore.NormalizeEmail(requestData.Email)
	if requestData.Email == "" || requestData.Password == "" {
		return requestData, webutil.ErrBadRequest("Email and password are required")
	}
	return requestData, nil
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) error {
	requestData, err := decodeCredentials(r)
	if err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(requestData.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := h.Users.Create(r.Context(), requestData.Email, passwordHash)
	if err != nil {
		if errors.Is(err, datastore.ErrEmailTaken) {
			return webutil.ErrConflict("That email is already registered")
		}
		return fmt.Errorf("failed to create user %s: %w", requestData.Email, err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, user)
	return nil
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	requestData, err := decodeCredentials(r)
	if err != nil {
		return err
	}

	user, err := h.Users.GetByEmail(r.Context(), requestData.Email)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrUnauthorized(msgInvalidCredentials)
		}
		return fmt.Errorf("failed to look up user %s: %w", requestData.Email, err)
	}
	if !auth.VerifyPassword(requestData.Password, user.PasswordHash) {
		return webutil.ErrUnauthorized(msgInvalidCredentials)
	}

	sess := h.Sessions.Get(r)
	sess.SetUserID(user.ID)

	// Claim runs after credential verification and clears the guest
	// token itself; one cookie write below covers both mutations.
	if err := h.Claimer.Claim(r.Context(), sess, user.ID); err != nil {
		return err
	}
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to persist login session: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) error {
	sess := h.Sessions.Get(r)
	sess.ClearUserID()
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to persist logout session: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

type identityResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) error {
	owner, err := requestOwner(r)
	if err != nil {
		return err
	}

	if !owner.IsUser() {
		webutil.RespondWithJSON(w, http.StatusOK, identityResponse{Authenticated: false})
		return nil
	}

	user, err := h.Users.GetByID(r.Context(), owner.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", owner.UserID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, identityResponse{Authenticated: true, User: user})
	return nil
}
