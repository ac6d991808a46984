package social

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/sesamo/internal/http/errors"
	svc "github.com/dropDatabas3/sesamo/internal/http/services/social"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
)

// StartController initiates the provider redirect.
type StartController struct {
	service   svc.StartService
	providers svc.ProvidersService
}

// NewStartController creates a StartController.
func NewStartController(service svc.StartService, providers svc.ProvidersService) *StartController {
	return &StartController{service: service, providers: providers}
}

// Start handles GET /v1/auth/social/{provider}/start
//
// With ?mode=json the auth URL comes back as JSON instead of a 302, for
// front-ends that open the provider in a popup.
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.Start"))

	provider := strings.ToLower(chi.URLParam(r, "provider"))
	if appErr := guardProvider(c.providers, provider); appErr != nil {
		log.Warn("provider rejected", logger.Provider(provider))
		httperrors.WriteError(w, appErr)
		return
	}

	res, err := c.service.Start(ctx, svc.StartRequest{
		Provider: provider,
		ReturnTo: strings.TrimSpace(r.URL.Query().Get("return_to")),
	})
	if err != nil {
		log.Error("start failed", logger.Provider(provider), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	if r.URL.Query().Get("mode") == "json" {
		writeJSON(w, http.StatusOK, map[string]string{"auth_url": res.RedirectURL})
		return
	}
	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}
