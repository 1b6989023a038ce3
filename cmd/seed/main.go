// cmd/seed: creates/updates demo catalog rows (supplier, products, a credit
// client). Stock starts at zero; receive a purchase to bring it in.
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/JonyGudino21/pharma-back/internal/config"
	"github.com/JonyGudino21/pharma-back/internal/infra"
	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	cfg.DBAutoMigrate = true
	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	ctx := context.Background()

	prov := model.Proveedor{RazonSocial: "Distribuidora Demo SA de CV", RFC: "DDE010101AAA", Activo: true}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "rfc"}}, DoUpdates: clause.AssignmentColumns([]string{"razon_social", "activo"})}).
		Create(&prov).Error; err != nil {
		log.Fatalf("proveedor: %v", err)
	}
	// re-read: on conflict the RETURNING row is not populated
	if err := db.WithContext(ctx).Where("rfc = ?", prov.RFC).First(&prov).Error; err != nil {
		log.Fatalf("proveedor: %v", err)
	}

	productos := []model.Producto{
		{CodigoBarras: "7501000000011", Nombre: "Paracetamol 500mg 20 tab", Categoria: "Analgésicos", PrecioVenta: decimal.RequireFromString("45.00"), StockMinimo: 10},
		{CodigoBarras: "7501000000028", Nombre: "Ibuprofeno 400mg 10 tab", Categoria: "Analgésicos", PrecioVenta: decimal.RequireFromString("38.50"), StockMinimo: 10},
		{CodigoBarras: "7501000000035", Nombre: "Amoxicilina 500mg 12 cap", Categoria: "Antibióticos", PrecioVenta: decimal.RequireFromString("120.00"), StockMinimo: 5},
		{CodigoBarras: "7501000000042", Nombre: "Suero oral 500ml", Categoria: "Hidratación", PrecioVenta: decimal.RequireFromString("25.00"), StockMinimo: 20},
	}
	for i := range productos {
		productos[i].ProveedorID = &prov.ID
		productos[i].Activo = true
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "codigo_barras"}}, DoUpdates: clause.AssignmentColumns([]string{"nombre", "categoria", "precio_venta", "stock_minimo"})}).
		Create(&productos).Error; err != nil {
		log.Fatalf("productos: %v", err)
	}

	email := "cliente.demo@example.com"
	cli := model.Cliente{Nombre: "Cliente Crédito Demo", Email: &email, TieneCredito: true, LimiteCredito: decimal.NewFromInt(5000), Activo: true}
	var existing model.Cliente
	if err := db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&existing).Error; err != nil {
		log.Fatalf("cliente: %v", err)
	}
	if existing.ID == uuid.Nil {
		if err := db.WithContext(ctx).Create(&cli).Error; err != nil {
			log.Fatalf("cliente: %v", err)
		}
		existing = cli
	}

	fmt.Printf("✅ Proveedor %s, %d productos, cliente %s\n", prov.ID, len(productos), existing.ID)
}
