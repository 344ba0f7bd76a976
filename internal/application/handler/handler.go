package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"schemeflow/internal/application/models"
	"schemeflow/internal/application/service"
	"schemeflow/internal/application/status"
	schememodels "schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/platform/httputil"
	"schemeflow/pkg/requestcontext"
)

// Service defines the application flow operations exposed over HTTP.
type Service interface {
	StartApplication(ctx context.Context, schemeID id.SchemeID, sessionID id.SessionID) (*service.StartResult, error)
	SaveProgress(ctx context.Context, appID id.ApplicationID, stepNumber int, value schememodels.Value) (*service.ProgressResult, error)
	SubmitApplication(ctx context.Context, appID id.ApplicationID) (*service.SubmitResult, error)
	GetApplication(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	GetNextStep(ctx context.Context, appID id.ApplicationID) (*service.ProgressResult, error)
	GetApplicationStatus(ctx context.Context, ref id.TrackingReference) (*service.StatusResult, error)
	UpdateApplicationStatus(ctx context.Context, ref id.TrackingReference, next status.ReviewStatus) (*service.StatusResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts application endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications", h.HandleStart)
	r.Get("/applications/{applicationID}", h.HandleGet)
	r.Get("/applications/{applicationID}/next-step", h.HandleNextStep)
	r.Put("/applications/{applicationID}/steps/{step}", h.HandleSaveStep)
	r.Post("/applications/{applicationID}/submit", h.HandleSubmit)
	r.Get("/tracking/{reference}", h.HandleStatus)
	r.Put("/tracking/{reference}/status", h.HandleUpdateStatus)
}

// HandleStart handles POST /applications. The session comes from the body or,
// failing that, the X-Session-ID header.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[StartRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	schemeID, err := id.ParseSchemeID(req.SchemeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sessionID := requestcontext.SessionID(ctx)
	if req.SessionID != "" {
		if sessionID, err = id.ParseSessionID(req.SessionID); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if sessionID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "session ID is required"))
		return
	}

	res, err := h.service.StartApplication(ctx, schemeID, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Resumed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, toStartResponse(res, language(ctx)))
}

// HandleGet handles GET /applications/{applicationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.service.GetApplication(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

// HandleNextStep handles GET /applications/{applicationID}/next-step.
func (h *Handler) HandleNextStep(w http.ResponseWriter, r *http.Request) {
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	res, err := h.service.GetNextStep(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProgressResponse(res, language(r.Context())))
}

// HandleSaveStep handles PUT /applications/{applicationID}/steps/{step}.
func (h *Handler) HandleSaveStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "step must be a number"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[SaveStepRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.SaveProgress(ctx, appID, step, req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProgressResponse(res, language(ctx)))
}

// HandleSubmit handles POST /applications/{applicationID}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	res, err := h.service.SubmitApplication(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SubmitResponse{
		ApplicationID:     res.ApplicationID.String(),
		TrackingReference: string(res.TrackingReference),
		SubmittedAt:       res.SubmittedAt,
	})
}

// HandleStatus handles GET /tracking/{reference}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ref, err := id.ParseTrackingReference(chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.GetApplicationStatus(r.Context(), ref)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(res))
}

// HandleUpdateStatus handles PUT /tracking/{reference}/status, the entry point
// for review decisions made outside the flow.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	ref, err := id.ParseTrackingReference(chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	next, err := status.ParseReviewStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.UpdateApplicationStatus(ctx, ref, next)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(res))
}

func applicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}
	return appID, true
}

func language(ctx context.Context) string {
	return schememodels.MatchLanguage(requestcontext.Language(ctx))
}
