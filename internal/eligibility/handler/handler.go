package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"schemeflow/internal/eligibility"
	"schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/httputil"
	"schemeflow/pkg/requestcontext"
)

// Service defines the eligibility operations exposed over HTTP.
type Service interface {
	CheckEligibility(ctx context.Context, schemeID id.SchemeID, inputs models.Inputs) (*eligibility.Result, error)
	SelectDocuments(ctx context.Context, schemeID id.SchemeID, inputs models.Inputs) ([]models.Document, error)
}

// Handler wires eligibility endpoints to the eligibility service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts eligibility endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/schemes/{schemeID}/eligibility", h.HandleCheck)
	r.Post("/schemes/{schemeID}/documents", h.HandleDocuments)
}

// HandleCheck handles POST /schemes/{schemeID}/eligibility.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	schemeID, err := id.ParseSchemeID(chi.URLParam(r, "schemeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[InputsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.CheckEligibility(ctx, schemeID, req.Inputs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	lang := models.MatchLanguage(requestcontext.Language(ctx))
	h.logger.InfoContext(ctx, "eligibility request served",
		"request_id", requestID,
		"scheme_id", schemeID,
		"eligible", result.Eligible,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, toResultResponse(result, lang))
}

// HandleDocuments handles POST /schemes/{schemeID}/documents. An empty body or empty
// inputs yields the full checklist.
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	schemeID, err := id.ParseSchemeID(chi.URLParam(r, "schemeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var inputs models.Inputs
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[InputsRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		inputs = req.Inputs
	}

	docs, err := h.service.SelectDocuments(ctx, schemeID, inputs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentsResponse(schemeID, docs, models.MatchLanguage(requestcontext.Language(ctx))))
}
