package social

import (
	"net/http"

	httperrors "github.com/dropDatabas3/sesamo/internal/http/errors"
	svc "github.com/dropDatabas3/sesamo/internal/http/services/social"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
)

// ProvidersController serves the live provider listing.
type ProvidersController struct {
	service svc.ProvidersService
}

// NewProvidersController creates a ProvidersController.
func NewProvidersController(service svc.ProvidersService) *ProvidersController {
	return &ProvidersController{service: service}
}

// List handles GET /v1/auth/providers
func (c *ProvidersController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := c.service.List(ctx)
	if err != nil {
		logger.From(ctx).Error("providers listing failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
