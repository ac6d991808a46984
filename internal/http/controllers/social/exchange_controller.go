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

// ExchangeController trades one-shot login codes for token pairs.
type ExchangeController struct {
	service svc.ExchangeService
}

// NewExchangeController creates an ExchangeController.
func NewExchangeController(service svc.ExchangeService) *ExchangeController {
	return &ExchangeController{service: service}
}

type exchangeRequest struct {
	Code string `json:"code"`
}

// Exchange handles POST /v1/auth/social/exchange
func (c *ExchangeController) Exchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ExchangeController.Exchange"))

	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	payload, err := c.service.Exchange(ctx, strings.TrimSpace(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrExchangeMissingCode):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing code"))
		case errors.Is(err, svc.ErrExchangeCodeInvalid):
			// same response for expired, consumed and never-existing codes
			httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("invalid or expired code"))
		default:
			log.Error("exchange failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, payload)
}
