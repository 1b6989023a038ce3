package worker

// stock_cron.go
// Background goroutine that periodically sweeps products at or below their
// minimum stock and enqueues one digest notification per tick.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/rs/zerolog/log"
)

// StockLister is satisfied by repository.ProductoRepository.
type StockLister interface {
	ListBajoStock(ctx context.Context) ([]model.Producto, error)
}

// Notifier is satisfied by *Dispatcher.
type Notifier interface {
	EnqueueNotificacion(ctx context.Context, p NotificacionPayload) error
}

// StockCronConfig holds all dependencies for the sweep goroutine.
type StockCronConfig struct {
	Productos StockLister
	Notifier  Notifier
	Interval  time.Duration
}

// StartStockAlertCron launches the sweep. It respects ctx for graceful
// shutdown.
func StartStockAlertCron(ctx context.Context, cfg StockCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("stock_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stock_cron: shutting down")
				return
			case <-ticker.C:
				sweepStock(ctx, cfg)
			}
		}
	}()
}

func sweepStock(ctx context.Context, cfg StockCronConfig) {
	productos, err := cfg.Productos.ListBajoStock(ctx)
	if err != nil {
		log.Error().Err(err).Msg("stock_cron: failed to query low stock")
		return
	}
	if len(productos) == 0 {
		return
	}
	p := StockDigest(productos)
	if err := cfg.Notifier.EnqueueNotificacion(ctx, p); err != nil {
		log.Error().Err(err).Msg("stock_cron: enqueue failed")
		return
	}
	log.Info().Int("count", len(productos)).Msg("stock_cron: low stock digest enqueued")
}

// StockDigest builds the notification listing every product below minimum.
func StockDigest(productos []model.Producto) NotificacionPayload {
	var b strings.Builder
	for _, p := range productos {
		fmt.Fprintf(&b, "%s (%s): %d / mínimo %d\n", p.Nombre, p.CodigoBarras, p.StockActual, p.StockMinimo)
	}
	return NotificacionPayload{
		Tipo:    NotifStockBajo,
		Asunto:  fmt.Sprintf("%d productos con stock bajo", len(productos)),
		Mensaje: b.String(),
	}
}
