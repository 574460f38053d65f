package api

import (
	"net/http"

	"github.com/example/phone-store/internal/command"
	"github.com/go-chi/chi/v5"
)

type UpdateProfileRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Profile Handlers

func (h *AuthHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.Me(w, r)
}

// UpdateProfile edits the caller's profile. The token keeps the old email
// claim until the next login.
func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.cmdHandler.UpdateProfile(r.Context(), command.UpdateProfile{
		UserID: getUserID(r),
		Email:  req.Email,
		Name:   req.Name,
		Phone:  req.Phone,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse(u))
}

func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.cmdHandler.ChangePassword(r.Context(), command.ChangePassword{
		UserID:          getUserID(r),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// Admin User Handlers

// AdminListUsers lists accounts, optionally filtered by ?keyword=
func (h *AuthHandlers) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.queryHandler.ListUsers(r.URL.Query().Get("keyword"))
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *AuthHandlers) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.queryHandler.GetUser(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}

// AdminSetUserStatus takes ?status=ACTIVE or ?status=INACTIVE
func (h *AuthHandlers) AdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	u, err := h.cmdHandler.SetUserStatus(r.Context(), command.SetUserStatus{
		ActorID: getUserID(r),
		UserID:  chi.URLParam(r, "id"),
		Status:  r.URL.Query().Get("status"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse(u))
}

func (h *AuthHandlers) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.cmdHandler.DeleteUser(r.Context(), command.DeleteUser{
		ActorID: getUserID(r),
		UserID:  chi.URLParam(r, "id"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
