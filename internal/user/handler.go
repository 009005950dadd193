package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"examreg/internal/guard"
	"examreg/pkg/httputil"
)

// Handler wires account endpoints to the user service. Login and
// logout go through the session guard so credentials are persisted in
// its store.
type Handler struct {
	service  *Service
	sessions *guard.Guard
	logger   *slog.Logger
}

func NewHandler(service *Service, sessions *guard.Guard, logger *slog.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, logger: logger}
}

// RegisterPublic mounts the endpoints that need no session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/users/register", h.handleRegister)
	r.Post("/users/login", h.handleLogin)
}

// RegisterProtected mounts the endpoints behind RequireAuth.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/users/logout", h.handleLogout)
	r.Get("/users/info", h.handleGetInfo)
	r.Put("/users/info", h.handleUpdateInfo)
	r.Put("/users/password", h.handleChangePassword)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	u, err := h.service.Register(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, u)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string         `json:"token"`
	UserInfo guard.Identity `json:"userInfo"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger)
	if !ok {
		return
	}

	identity, token, err := h.sessions.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ua := useragent.New(r.UserAgent())
	browser, _ := ua.Browser()
	h.logger.InfoContext(ctx, "login session opened",
		"user_id", identity.ID,
		"os", ua.OS(),
		"browser", browser,
		"mobile", ua.Mobile(),
	)

	httputil.WriteSuccess(w, loginResponse{Token: token, UserInfo: *identity})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.sessions.EndSession(ctx, guard.Username(ctx))
	httputil.WriteMessage(w, "logged out")
}

func (h *Handler) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := h.service.Get(ctx, guard.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, u)
}

func (h *Handler) handleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	u, err := h.service.UpdateProfile(ctx, guard.UserID(ctx), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, u)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[ChangePasswordRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.ChangePassword(ctx, guard.UserID(ctx), req.OldPassword, req.NewPassword); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, "password changed")
}
