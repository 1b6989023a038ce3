package infra

import (
	"fmt"

	"github.com/JonyGudino21/pharma-back/internal/config"
	"github.com/JonyGudino21/pharma-back/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection (pgx underneath), optionally runs
// AutoMigrate, and then applies the idempotent SQL patches GORM cannot
// express: the invoice sequence and partial unique indexes.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Silent
	if !cfg.IsProduction() && cfg.LogLevel == "debug" {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(max(maxOpen/5, 2))

	if cfg.DBAutoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	} else if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}
	return db, nil
}

// Models lists every table owned by this service, in dependency order.
func Models() []any {
	return []any{
		&model.Proveedor{},
		&model.Producto{},
		&model.Cliente{},
		&model.MovimientoStock{},
		&model.HistorialPrecio{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.Venta{},
		&model.VentaItem{},
		&model.VentaPago{},
		&model.Devolucion{},
		&model.DevolucionItem{},
		&model.Reembolso{},
		&model.Compra{},
		&model.CompraItem{},
		&model.CompraPago{},
		&model.PrecioCliente{},
		&model.HistorialPrecioCliente{},
	}
}

// RunMigrations creates/updates all tables and applies schema patches.
// Integration tests call it against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"invoice number sequence",
			`CREATE SEQUENCE IF NOT EXISTS ventas_numero_factura_seq START 1`},
		// one open shift per user, enforced by the DB as well as the service
		{"one open cash shift per user", `
DO $$ BEGIN
  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'sesiones_caja')
    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'ux_sesiones_caja_usuario_abierta') THEN
    CREATE UNIQUE INDEX ux_sesiones_caja_usuario_abierta
        ON sesiones_caja (usuario_id)
        WHERE estado = 'abierta';
  END IF;
END $$`},
		{"open invoices per client (FIFO scan)", `
DO $$ BEGIN
  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'ventas')
    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_ventas_cliente_abiertas') THEN
    CREATE INDEX idx_ventas_cliente_abiertas
        ON ventas (cliente_id, completada_at)
        WHERE flujo = 'completada' AND saldo > 0;
  END IF;
END $$`},
		{"kardex lookup", `
DO $$ BEGIN
  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'movimientos_stock')
    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_movimientos_stock_producto_fecha') THEN
    CREATE INDEX idx_movimientos_stock_producto_fecha
        ON movimientos_stock (producto_id, created_at DESC);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
