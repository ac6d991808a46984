// Package social contains controllers for the social login endpoints.
package social

import (
	"encoding/json"
	"net/http"

	svc "github.com/dropDatabas3/sesamo/internal/http/services/social"
)

// Controllers agrupa todos los controllers del dominio social.
type Controllers struct {
	Providers *ProvidersController
	Start     *StartController
	Callback  *CallbackController
	Exchange  *ExchangeController
	Login     *LoginController
	Session   *SessionController
}

// NewControllers creates the social controllers aggregator.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Providers: NewProvidersController(s.Providers),
		Start:     NewStartController(s.Start, s.Providers),
		Callback:  NewCallbackController(s.Callback, s.StateSigner),
		Exchange:  NewExchangeController(s.Exchange),
		Login:     NewLoginController(s.Login, s.Providers),
		Session:   NewSessionController(s.Session),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
