package service

import (
	"bytes"
	"context"
	"errors"
	"slices"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/worker"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// DocumentLocker serializes mutations of one document across replicas.
// release must be called once the transaction has finished.
type DocumentLocker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// JobDispatcher enqueues side effects that run after commit.
type JobDispatcher interface {
	EnqueueComprobante(ctx context.Context, p worker.ComprobantePayload) error
	EnqueueNotificacion(ctx context.Context, p worker.NotificacionPayload) error
}

// IdempotencyStore records processed request keys.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// withLock runs fn while holding the document lock. A nil locker runs fn
// directly.
func withLock(ctx context.Context, locker DocumentLocker, key string, fn func() error) error {
	if locker == nil {
		return fn()
	}
	release, err := locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// lookupErr turns gorm.ErrRecordNotFound into a typed NotFound and passes
// any other error through.
func lookupErr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(format, args...)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// estadoPagoDe derives payment progress from total and paid amounts. A
// document with nothing to collect is already paid.
func estadoPagoDe(total, pagado decimal.Decimal) model.EstadoPago {
	switch {
	case !total.IsPositive():
		return model.PagoPagada
	case !pagado.IsPositive():
		return model.PagoPendiente
	case pagado.GreaterThanOrEqual(total):
		return model.PagoPagada
	default:
		return model.PagoParcial
	}
}

func money(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

func qty(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

// Row locks are taken in one global order: cliente, then the document, then
// productos by id, then proveedor. Lines go through the ledger sorted by
// product.

func compararProducto(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }

func ordenarVentaItems(items []model.VentaItem) {
	slices.SortStableFunc(items, func(a, b model.VentaItem) int { return compararProducto(a.ProductoID, b.ProductoID) })
}

func ordenarCompraItems(items []model.CompraItem) {
	slices.SortStableFunc(items, func(a, b model.CompraItem) int { return compararProducto(a.ProductoID, b.ProductoID) })
}
