package worker

// notificacion_worker.go
// Delivers operator alerts (cash audits, low stock) to ALERT_EMAIL.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JonyGudino21/pharma-back/internal/infra"

	"github.com/rs/zerolog/log"
)

// NotificacionWorker processes jobs from QueueNotificaciones.
type NotificacionWorker struct {
	mailer *infra.Mailer
	to     string
}

func NewNotificacionWorker(mailer *infra.Mailer, to string) *NotificacionWorker {
	return &NotificacionWorker{mailer: mailer, to: to}
}

func (w *NotificacionWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload NotificacionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("notificacion_worker: invalid payload: %w", ErrPermanent)
	}

	// Without a recipient the alert is only logged.
	if w.to == "" || w.mailer == nil || !w.mailer.Enabled() {
		log.Warn().Str("tipo", payload.Tipo).Str("asunto", payload.Asunto).Msg(payload.Mensaje)
		return nil
	}
	if err := w.mailer.Send(w.to, payload.Asunto, payload.Mensaje, ""); err != nil {
		return err
	}
	log.Info().Str("tipo", payload.Tipo).Str("to", w.to).Msg("notificacion_worker: alert sent")
	return nil
}
