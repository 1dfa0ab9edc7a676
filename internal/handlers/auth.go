package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mwhitfield/echojournal-backend/internal/middleware"
	"github.com/mwhitfield/echojournal-backend/internal/store"
	"github.com/mwhitfield/echojournal-backend/pkg/utils"
)

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Token   string                 `json:"token,omitempty"`
	User    map[string]interface{} `json:"user,omitempty"`
}

// Signup registers a new account and signs it in.
func (api *API) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	digest, err := api.Hasher.Hash(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user, err := api.Users.CreateUser(r.Context(), req.Username, digest)
	if errors.Is(err, store.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "Username is already taken")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	token, err := api.Tokens.Issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		Token:   token,
		User: map[string]interface{}{
			"id":       user.ID.String(),
			"username": user.Username,
		},
	})
}

// Signin verifies credentials and issues a fresh token. Unknown username
// and wrong password produce the same response.
func (api *API) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := api.Users.UserByUsername(r.Context(), req.Username)
	if err != nil || !api.Hasher.Verify(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := api.Tokens.Issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Token:   token,
		User: map[string]interface{}{
			"id":       user.ID.String(),
			"username": user.Username,
		},
	})
}

// Me returns the account behind the presented credential.
func (api *API) Me(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := api.Users.UserByID(r.Context(), ownerID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User: map[string]interface{}{
			"id":         user.ID.String(),
			"username":   user.Username,
			"created_at": user.CreatedAt,
		},
	})
}
