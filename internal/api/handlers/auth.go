package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/studyhub/internal/api/middleware"
	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/service"
)

type AuthHandler struct {
	authService   *service.AuthService
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies, logger: logger}
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type VerifyTokenResponse struct {
	User domain.Identity `json:"user"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username, Email: user.Email}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Signup(r.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var fe *service.SignupFieldErrors
		if errors.As(err, &fe) {
			writeError(w, http.StatusBadRequest, fe)
			return
		}
		h.logger.Error("signup failed", "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Message: "New user created!", User: toUserResponse(user)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.authService.Login(r.Context(), service.LoginInput{
		UsernameOrEmail: req.UsernameOrEmail,
		Password:        req.Password,
	})
	if err != nil {
		var fe *service.LoginFieldErrors
		if errors.As(err, &fe) {
			writeError(w, http.StatusBadRequest, fe)
			return
		}
		h.logger.Error("login failed", "error", err)
		writeInternalError(w)
		return
	}

	h.setCookie(w, middleware.AccessTokenCookie, session.AccessToken.Value, session.AccessToken.TTL)
	h.setCookie(w, middleware.RefreshTokenCookie, session.RefreshToken.Value, session.RefreshToken.TTL)
	writeJSON(w, http.StatusOK, AuthResponse{Message: "Login successful", User: toUserResponse(session.User)})
}

// Logout always succeeds. Tokens that still verify are denylisted first.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context(), cookieValue(r, middleware.AccessTokenCookie), cookieValue(r, middleware.RefreshTokenCookie))

	h.clearCookie(w, middleware.AccessTokenCookie)
	h.clearCookie(w, middleware.RefreshTokenCookie)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Profile and CurrentUser return the same body; both routes exist for client compatibility.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to load user", "user_id", identity.UserID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	h.Profile(w, r)
}

func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, VerifyTokenResponse{User: identity})
}

// Refresh swaps a valid refresh token cookie for a new access token cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookieValue(r, middleware.RefreshTokenCookie)
	if refreshToken == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	access, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenRevoked) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		h.logger.Error("token refresh failed", "error", err)
		writeInternalError(w)
		return
	}

	h.setCookie(w, middleware.AccessTokenCookie, access.Value, access.TTL)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Token refreshed"})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
