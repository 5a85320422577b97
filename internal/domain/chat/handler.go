package chat

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sasilab/medbot/internal/domain/agent"
	"github.com/sasilab/medbot/internal/domain/audit"
	"github.com/sasilab/medbot/internal/platform/auth"
	"github.com/sasilab/medbot/internal/platform/llm"
	"github.com/sasilab/medbot/pkg/pagination"

	"github.com/sasilab/medbot/internal/domain/policy"
)

// Handler exposes the chat API via echo routes.
type Handler struct {
	users    *auth.UserStore
	issuer   *auth.TokenIssuer
	sessions *Manager
	auditLog *audit.Log
}

// NewHandler creates the chat API handler.
func NewHandler(users *auth.UserStore, issuer *auth.TokenIssuer, sessions *Manager, auditLog *audit.Log) *Handler {
	return &Handler{users: users, issuer: issuer, sessions: sessions, auditLog: auditLog}
}

// RegisterRoutes binds the chat API. Login stays outside the auth
// middleware; everything else requires a session token.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/login", h.Login)

	authed := g.Group("", auth.Middleware(h.issuer))
	authed.POST("/chat", h.Chat)
	authed.GET("/audit", h.AuditLog, auth.RequireRole(policy.RoleSupervisor))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Login handles POST /login.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	role, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	token, session, err := h.issuer.Issue(req.Username, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create session"})
	}
	if err := h.sessions.Create(session.SessionID, req.Username, role); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create session"})
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, Role: string(role)})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /chat: one full agent turn.
func (h *Handler) Chat(c echo.Context) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	reply, err := h.sessions.HandleInput(c.Request().Context(), session.SessionID, session.Username, session.Role, req.Message)
	if err != nil {
		// Collaborator failures end the turn, not the session.
		var reqErr *llm.RequestError
		switch {
		case errors.As(err, &reqErr), errors.Is(err, agent.ErrToolLoopLimit):
			return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusOK, chatResponse{Reply: reply})
}

// AuditLog handles GET /audit (Supervisor only; enforced by middleware).
func (h *Handler) AuditLog(c echo.Context) error {
	params := pagination.FromContext(c)
	events := h.auditLog.Events()
	start, end := params.Slice(len(events))
	return c.JSON(http.StatusOK, pagination.NewResponse(events[start:end], len(events), params))
}
