package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/httputil"
	"schemeflow/pkg/requestcontext"
)

// Service defines the catalog operations exposed over HTTP.
type Service interface {
	GetScheme(ctx context.Context, schemeID id.SchemeID) (*models.Scheme, error)
	ListSchemes(ctx context.Context, category string) ([]*models.Scheme, error)
}

// Handler serves scheme discovery endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/schemes", h.HandleList)
	r.Get("/schemes/{schemeID}", h.HandleGet)
}

// HandleList handles GET /schemes?category=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schemes, err := h.service.ListSchemes(ctx, r.URL.Query().Get("category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(schemes, presentationLanguage(r)))
}

// HandleGet handles GET /schemes/{schemeID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schemeID, err := id.ParseSchemeID(chi.URLParam(r, "schemeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	scheme, err := h.service.GetScheme(ctx, schemeID)
	if err != nil {
		h.logger.WarnContext(ctx, "scheme lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"scheme_id", schemeID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDetailResponse(scheme, presentationLanguage(r)))
}

// presentationLanguage prefers an explicit ?lang= over the negotiated request language.
func presentationLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return models.MatchLanguage(lang)
	}
	return models.MatchLanguage(requestcontext.Language(r.Context()))
}
