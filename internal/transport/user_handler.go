package transport

import (
	"context"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Sessions is the part of service.SessionStore the handlers use
type Sessions interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Current(ctx context.Context, userID int64) (*domain.User, error)
	Refresh(ctx context.Context, user *domain.User)
	Logout(ctx context.Context, userID int64)
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	sessions    Sessions
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, sessions Sessions, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		sessions:    sessions,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
		})
	})
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := middleware.Decode(r, &req); err != nil {
		h.logger.Debug("Registration decode failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		h.logger.Debug("Registration failed", zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("User registered", zap.Int64("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

// Login authenticates the user and opens a session
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	token, user, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// Logout closes the caller's session and empties their cart
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	h.sessions.Logout(r.Context(), userID)

	h.logger.Info("User logged out", zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile returns the session's user
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.sessions.Current(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateProfile edits the session's user and refreshes the cached copy
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req service.ProfileInput
	if err := middleware.Decode(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.logger.Debug("Profile update failed", zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	h.sessions.Refresh(r.Context(), user)

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// requireUser reads the authenticated user ID, answering 401 when it is absent
func requireUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}
