package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostoPromedioPonderado(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		costo    string
		cantidad int
		entrada  string
		want     string
	}{
		{"mezcla", 10, "10", 10, "20", "15"},
		{"sin stock toma costo entrante", 0, "10", 5, "12.5", "12.5"},
		{"redondeo a cuatro decimales", 3, "10", 4, "11", "10.5714"},
		{"mismo costo", 7, "8", 3, "8", "8"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := service.CostoPromedioPonderado(tc.stock, d(tc.costo), tc.cantidad, d(tc.entrada))
			assert.True(t, got.Equal(d(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestMovimientoNoPermiteStockNegativo(t *testing.T) {
	f := newFixture(t)
	p := f.producto("Naproxeno", 2, "5", "12")

	_, err := f.inventario.RegistrarMovimiento(context.Background(), f.cajero, dto.MovimientoRequest{
		ProductoID: p.ID.String(), Tipo: string(model.MovMerma), Cantidad: 3, Motivo: "caducado",
	})
	requireKind(t, err, apierror.KindInsufficientResource)
	assert.ErrorContains(t, err, "Stock insuficiente")
	assert.Equal(t, 2, f.productos.stock(p.ID))
	assert.Empty(t, f.movimientos.movs)
}

func TestMovimientoManualRechazaTiposDeMotor(t *testing.T) {
	f := newFixture(t)
	p := f.producto("Naproxeno", 2, "5", "12")

	for _, tipo := range []model.TipoMovimiento{model.MovVenta, model.MovCompra} {
		_, err := f.inventario.RegistrarMovimiento(context.Background(), f.cajero, dto.MovimientoRequest{
			ProductoID: p.ID.String(), Tipo: string(tipo), Cantidad: 1, Motivo: "manual",
		})
		requireKind(t, err, apierror.KindValidation)
	}
}

func TestMovimientoRegistraKardex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.producto("Naproxeno", 2, "5", "12")

	mov, err := f.inventario.RegistrarMovimiento(ctx, f.cajero, dto.MovimientoRequest{
		ProductoID: p.ID.String(), Tipo: string(model.MovTransferenciaEntrada), Cantidad: 4, Motivo: "desde sucursal centro",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, mov.Cantidad)
	assert.Equal(t, 2, mov.StockAnterior)
	assert.Equal(t, 6, mov.StockNuevo)
	assert.Equal(t, "20.00", mov.CostoTotal.StringFixed(2))

	kardex, err := f.inventario.Kardex(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, kardex, 1)
	assert.Equal(t, string(model.MovTransferenciaEntrada), kardex[0].Tipo)
}

func TestAjusteInventario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.producto("Naproxeno", 10, "5", "12")

	mov, err := f.inventario.RegistrarAjuste(ctx, f.cajero, dto.AjusteRequest{ProductoID: p.ID.String(), CantidadReal: 7, Motivo: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, string(model.MovMerma), mov.Tipo)
	assert.Equal(t, -3, mov.Cantidad)

	mov, err = f.inventario.RegistrarAjuste(ctx, f.cajero, dto.AjusteRequest{ProductoID: p.ID.String(), CantidadReal: 9, Motivo: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, string(model.MovAjusteEntrada), mov.Tipo)
	assert.Equal(t, 9, f.productos.stock(p.ID))

	_, err = f.inventario.RegistrarAjuste(ctx, f.cajero, dto.AjusteRequest{ProductoID: p.ID.String(), CantidadReal: 9, Motivo: "conteo físico"})
	requireKind(t, err, apierror.KindValidation)
}

// Concurrent sales of the last units: exactly the available stock succeeds.
func TestVentasConcurrentesNoSobrevenden(t *testing.T) {
	f := newFixture(t)
	p := f.producto("Vacuna influenza", 5, "100", "250")

	var ok, rechazadas atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			usuario := uuid.New()
			_, err := f.inventario.RegistrarMovimientoTx(context.Background(), nil, service.MovimientoInput{
				ProductoID: p.ID,
				Tipo:       model.MovVenta,
				Cantidad:   1,
				Motivo:     "venta mostrador",
				UsuarioID:  &usuario,
			})
			if err == nil {
				ok.Add(1)
				return
			}
			if apierror.Is(err, apierror.KindInsufficientResource) {
				rechazadas.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 5, ok.Load())
	assert.EqualValues(t, 5, rechazadas.Load())
	assert.Equal(t, 0, f.productos.stock(p.ID))
	assert.Len(t, f.movimientos.porTipo(model.MovVenta), 5)
}

func TestValorizacionYAlertas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.producto("Naproxeno", 10, "5", "12")
	bajo := f.producto("Ranitidina", 1, "8", "20")

	val, err := f.inventario.Valorizacion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, val.Productos)
	assert.EqualValues(t, 11, val.UnidadesTotales)
	assert.Equal(t, "58.00", val.ValorTotal.StringFixed(2))

	alertas, err := f.inventario.AlertasStockBajo(ctx)
	require.NoError(t, err)
	require.Len(t, alertas, 1)
	assert.Equal(t, bajo.ID.String(), alertas[0].ProductoID)
	assert.Equal(t, 1, alertas[0].Faltante)
}

func TestExportarKardex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.producto("Naproxeno", 10, "5", "12")
	_, err := f.inventario.RegistrarAjuste(ctx, f.cajero, dto.AjusteRequest{ProductoID: p.ID.String(), CantidadReal: 8, Motivo: "conteo"})
	require.NoError(t, err)

	xlsx, err := f.inventario.ExportarKardex(ctx, p.ID, 0)
	require.NoError(t, err)
	// xlsx files are zip archives
	require.Greater(t, len(xlsx), 4)
	assert.Equal(t, []byte("PK"), xlsx[:2])

	_, err = f.inventario.ExportarKardex(ctx, uuid.New(), 0)
	requireKind(t, err, apierror.KindNotFound)
}
