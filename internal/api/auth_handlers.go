package api

import (
	"net/http"
	"time"

	"github.com/example/phone-store/internal/api/middleware"
	"github.com/example/phone-store/internal/auth"
	"github.com/example/phone-store/internal/command"
	"github.com/example/phone-store/internal/domain/user"
	"github.com/example/phone-store/internal/query"
	"github.com/example/phone-store/internal/readmodel"
)

const accessTokenCookie = "access_token"

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	jwtService   *auth.JWTService
	secureCookie bool
}

func NewAuthHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, jwtService *auth.JWTService, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		jwtService:   jwtService,
		secureCookie: secureCookie,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned by register and login
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// Register creates a customer account and signs it in. The role is never
// taken from the request.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.cmdHandler.RegisterUser(r.Context(), command.RegisterUser{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     auth.RoleCustomer,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	h.issueToken(w, http.StatusCreated, userResponse(u))
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.cmdHandler.Login(r.Context(), command.Login{Email: req.Email, Password: req.Password})
	if err != nil {
		respondError(w, err)
		return
	}
	h.issueToken(w, http.StatusOK, toUserResponse(u))
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.queryHandler.GetUser(getUserID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *AuthHandlers) issueToken(w http.ResponseWriter, status int, u UserResponse) {
	token, expiresAt, err := h.jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		respondError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.WriteJSON(w, status, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        u,
	})
}

func toUserResponse(u *readmodel.UserReadModel) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// userResponse renders the authoritative aggregate, for answers that must
// reflect a write before it is projected
func userResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
