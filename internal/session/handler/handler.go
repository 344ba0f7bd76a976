package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schemeflow/internal/session/models"
	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/httputil"
	"schemeflow/pkg/requestcontext"
)

// Service defines the session operations exposed over HTTP.
type Service interface {
	CreateSession(ctx context.Context, language string) (*models.Session, error)
	GetSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	AppendMessage(ctx context.Context, sessionID id.SessionID, role models.Role, content string) (*models.Session, error)
	UpdateContext(ctx context.Context, sessionID id.SessionID, patch map[string]string) (*models.Session, error)
	SetLanguage(ctx context.Context, sessionID id.SessionID, language string) (*models.Session, error)
}

// Handler serves conversation session endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.HandleCreate)
	r.Get("/sessions/{sessionID}", h.HandleGet)
	r.Post("/sessions/{sessionID}/messages", h.HandleAppendMessage)
	r.Patch("/sessions/{sessionID}/context", h.HandleUpdateContext)
	r.Put("/sessions/{sessionID}/language", h.HandleSetLanguage)
}

// HandleCreate handles POST /sessions. The body is optional; without an
// explicit language the negotiated request language is used.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := &CreateSessionRequest{}
	if r.ContentLength != 0 {
		var ok bool
		if req, ok = httputil.DecodeAndPrepare[CreateSessionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
			return
		}
	}
	lang := req.Language
	if lang == "" {
		lang = requestcontext.Language(ctx)
	}

	session, err := h.service.CreateSession(ctx, lang)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create session",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

// HandleGet handles GET /sessions/{sessionID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleAppendMessage handles POST /sessions/{sessionID}/messages.
func (h *Handler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AppendMessageRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session, err := h.service.AppendMessage(ctx, sessionID, models.Role(req.Role), req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleUpdateContext handles PATCH /sessions/{sessionID}/context.
func (h *Handler) HandleUpdateContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateContextRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session, err := h.service.UpdateContext(ctx, sessionID, req.Context)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleSetLanguage handles PUT /sessions/{sessionID}/language.
func (h *Handler) HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetLanguageRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session, err := h.service.SetLanguage(ctx, sessionID, req.Language)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.SessionID{}, false
	}
	return sessionID, true
}
