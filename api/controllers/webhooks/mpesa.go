package webhooks

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukayetu/dukayetu-backend/api/responses"
	mpesawebhook "github.com/dukayetu/dukayetu-backend/internal/webhooks/mpesa"
	"github.com/dukayetu/dukayetu-backend/pkg/config"
	"github.com/dukayetu/dukayetu-backend/pkg/logger"
	"github.com/dukayetu/dukayetu-backend/pkg/mpesa"
)

// MpesaCallback handles STK push result callbacks from Daraja. The URL path
// carries a shared secret; a wrong or missing token answers 404 so the route
// is indistinguishable from a dead one.
func MpesaCallback(cfg config.MpesaConfig, svc mpesawebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := chi.URLParam(r, "token")
		if cfg.CallbackToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.CallbackToken)) != 1 {
			if logg != nil {
				logg.Warn(ctx, "callback token mismatch")
			}
			http.NotFound(w, r)
			return
		}

		if svc == nil {
			responses.WriteJSON(w, http.StatusOK, mpesa.AckRejected("Callback processing failed"))
			return
		}

		var envelope mpesa.CallbackEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "callback body malformed")
			}
			responses.WriteJSON(w, http.StatusOK, mpesa.AckRejected("Callback rejected"))
			return
		}

		ack := svc.HandleCallback(ctx, envelope)

		// Daraja only looks at the Ack body, never the HTTP status.
		responses.WriteJSON(w, http.StatusOK, ack)
	}
}
