package social

import (
	"strings"

	httperrors "github.com/dropDatabas3/sesamo/internal/http/errors"
	svc "github.com/dropDatabas3/sesamo/internal/http/services/social"
)

// guardProvider rejects providers that are not live-configured. The error
// detail names the providers that ARE available so clients can self-correct
// without another round trip.
func guardProvider(providers svc.ProvidersService, name string) *httperrors.AppError {
	if name == "" {
		return httperrors.ErrBadRequest.WithDetail("missing provider")
	}
	ok, available := providers.Enabled(name)
	if ok {
		return nil
	}
	detail := "provider " + name + " is not enabled"
	if len(available) > 0 {
		detail += "; available: " + strings.Join(available, ", ")
	}
	return httperrors.ErrProviderUnknown.WithDetail(detail)
}
