package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/avelouis/backend-linkgen/internal/common"
)

// Handler exposes the catalog endpoint.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Catalog handles GET /api/v1/catalog. A processor outage yields an empty
// listing with a warning, never a hard failure.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	refresh := strings.EqualFold(r.URL.Query().Get("refresh"), "true")
	cat, err := h.service.ActiveCatalog(r.Context(), refresh)
	if err != nil {
		if common.ErrorCode(err) == common.CodeRemoteUnavailable {
			common.JSON(w, http.StatusOK, map[string]any{
				"data": []Entry{},
				"warning": common.WarningBody{
					Code:    common.CodeRemoteUnavailable,
					Message: "no products available: the payment processor could not be reached",
				},
			})
			return
		}
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cat.Entries})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unexpected error", nil)
}
