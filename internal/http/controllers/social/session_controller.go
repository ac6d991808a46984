package social

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/sesamo/internal/http/errors"
	svc "github.com/dropDatabas3/sesamo/internal/http/services/social"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
)

// SessionController handles refresh rotation and logout.
type SessionController struct {
	service svc.SessionService
}

// NewSessionController creates a SessionController.
func NewSessionController(service svc.SessionService) *SessionController {
	return &SessionController{service: service}
}

type sessionRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles POST /v1/auth/refresh
func (c *SessionController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Refresh"))

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	payload, err := c.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if !isSessionClientFault(err) {
			log.Error("refresh failed", logger.Err(err))
		}
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// Logout handles POST /v1/auth/logout
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Logout"))

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if err := c.service.Logout(ctx, req.RefreshToken); err != nil {
		if !isSessionClientFault(err) {
			log.Error("logout failed", logger.Err(err))
		}
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isSessionClientFault(err error) bool {
	return errors.Is(err, svc.ErrSessionTokenMissing) || errors.Is(err, svc.ErrSessionTokenInvalid)
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrSessionTokenMissing):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing refreshToken"))
	case errors.Is(err, svc.ErrSessionTokenInvalid):
		// same response for unknown, revoked, rotated and expired tokens
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("invalid refresh token"))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
