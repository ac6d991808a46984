package social

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/sesamo/internal/http/errors"
	svc "github.com/dropDatabas3/sesamo/internal/http/services/social"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
)

// LoginController is the direct server-to-server login entry.
type LoginController struct {
	service   svc.LoginService
	providers svc.ProvidersService
}

// NewLoginController creates a LoginController.
func NewLoginController(service svc.LoginService, providers svc.ProvidersService) *LoginController {
	return &LoginController{service: service, providers: providers}
}

// Login handles POST /v1/auth/social-login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req svc.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))

	if appErr := guardProvider(c.providers, req.Provider); appErr != nil {
		log.Warn("provider rejected", logger.Provider(req.Provider))
		httperrors.WriteError(w, appErr)
		return
	}

	payload, err := c.service.Login(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrLoginProviderUnknown):
			httperrors.WriteError(w, httperrors.ErrProviderUnknown)
		case errors.Is(err, svc.ErrLoginProfileInvalid):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("profile requires providerUserId"))
		default:
			log.Error("social login failed", logger.Provider(req.Provider), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrAuthenticationFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, payload)
}
