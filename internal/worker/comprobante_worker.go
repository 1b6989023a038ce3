package worker

// comprobante_worker.go
// Renders the invoice PDF for a completed sale and, when the sale has a
// client with an email address, mails it as an attachment.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonyGudino21/pharma-back/internal/infra"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ComprobanteWorker processes jobs from QueueComprobantes.
type ComprobanteWorker struct {
	ventas      repository.VentaRepository
	mailer      *infra.Mailer
	negocio     string
	storagePath string
	render      func(v *model.Venta, negocio, storagePath string) (string, error)
}

func NewComprobanteWorker(ventas repository.VentaRepository, mailer *infra.Mailer, negocio, storagePath string) *ComprobanteWorker {
	return &ComprobanteWorker{
		ventas:      ventas,
		mailer:      mailer,
		negocio:     negocio,
		storagePath: storagePath,
		render:      infra.GenerateFacturaPDF,
	}
}

func (w *ComprobanteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ComprobantePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("comprobante_worker: invalid payload: %w", ErrPermanent)
	}
	id, err := uuid.Parse(payload.VentaID)
	if err != nil {
		return fmt.Errorf("comprobante_worker: venta_id %q: %w", payload.VentaID, ErrPermanent)
	}

	venta, err := w.ventas.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("comprobante_worker: venta %s not found: %w", id, ErrPermanent)
	}
	if err != nil {
		return err
	}
	if venta.Flujo != model.FlujoCompletada {
		log.Warn().Str("venta_id", id.String()).Str("flujo", string(venta.Flujo)).
			Msg("comprobante_worker: venta is not completed, skipping")
		return nil
	}

	path, err := w.render(venta, w.negocio, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("venta_id", id.String()).Str("pdf", path).Msg("comprobante_worker: factura generated")

	if venta.Cliente == nil || venta.Cliente.Email == nil || *venta.Cliente.Email == "" {
		return nil
	}
	if w.mailer == nil || !w.mailer.Enabled() {
		return nil
	}
	subject := fmt.Sprintf("Factura %s", *venta.NumeroFactura)
	body := fmt.Sprintf("Gracias por su compra en %s. Adjuntamos su factura.", w.negocio)
	if err := w.mailer.Send(*venta.Cliente.Email, subject, body, path); err != nil {
		// the PDF exists; resend on retry is acceptable
		return err
	}
	log.Info().Str("to", *venta.Cliente.Email).Msg("comprobante_worker: factura sent")
	return nil
}
