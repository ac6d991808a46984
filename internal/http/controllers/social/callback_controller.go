package social

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/sesamo/internal/http/errors"
	svc "github.com/dropDatabas3/sesamo/internal/http/services/social"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
)

// CallbackController handles the provider redirect back into the service.
type CallbackController struct {
	service svc.CallbackService
	// signer extracts the return URL from state for error redirects
	signer svc.StateSigner
}

// NewCallbackController creates a CallbackController.
func NewCallbackController(service svc.CallbackService, signer svc.StateSigner) *CallbackController {
	return &CallbackController{service: service, signer: signer}
}

// Callback handles GET /v1/auth/social/{provider}/callback
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	provider := strings.ToLower(chi.URLParam(r, "provider"))
	q := r.URL.Query()

	// the provider may come back with an error instead of a code
	if idpError := strings.TrimSpace(q.Get("error")); idpError != "" {
		idpDesc := strings.TrimSpace(q.Get("error_description"))
		log.Warn("provider returned error",
			logger.Provider(provider),
			logger.String("error", idpError),
			logger.String("description", idpDesc),
		)
		if returnTo := c.returnToFromState(q.Get("state")); returnTo != "" {
			redirectWithError(w, r, returnTo, idpError, idpDesc)
			return
		}
		httperrors.WriteError(w, httperrors.ErrAuthenticationFailed.WithDetail("idp_error: "+idpError))
		return
	}

	res, err := c.service.Callback(ctx, svc.CallbackRequest{
		Provider: provider,
		State:    strings.TrimSpace(q.Get("state")),
		Code:     strings.TrimSpace(q.Get("code")),
	})
	if err != nil {
		log.Warn("callback rejected", logger.Provider(provider), logger.Err(err))
		writeCallbackError(w, err)
		return
	}

	if res.RedirectURL != "" {
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, res.Payload)
}

func writeCallbackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrCallbackMissingState),
		errors.Is(err, svc.ErrCallbackMissingCode):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail(err.Error()))
	case errors.Is(err, svc.ErrCallbackInvalidState),
		errors.Is(err, svc.ErrCallbackProviderMismatch):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("state rejected"))
	case errors.Is(err, svc.ErrCallbackProviderUnknown):
		httperrors.WriteError(w, httperrors.ErrProviderUnknown)
	case errors.Is(err, svc.ErrCallbackExchangeFailed):
		httperrors.WriteError(w, httperrors.ErrAuthenticationFailed.WithDetail("code exchange rejected by provider"))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}

// returnToFromState best-effort extracts the client return URL so provider
// errors can bounce back to the app instead of dead-ending here.
func (c *CallbackController) returnToFromState(state string) string {
	state = strings.TrimSpace(state)
	if state == "" || c.signer == nil {
		return ""
	}
	sc, err := c.signer.ParseState(state)
	if err != nil {
		return ""
	}
	return sc.ReturnTo
}

func redirectWithError(w http.ResponseWriter, r *http.Request, returnTo, code, desc string) {
	u, err := url.Parse(returnTo)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("bad return url"))
		return
	}
	q := u.Query()
	q.Set("error", code)
	if desc != "" {
		q.Set("error_description", desc)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}
