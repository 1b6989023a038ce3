package service_test

import (
	"context"
	"testing"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbrirCaja(t *testing.T) {
	f := newFixture(t)
	s := f.abrirTurno(t, "100")

	assert.Equal(t, "abierta", s.Estado)
	assert.Equal(t, "100.00", s.MontoInicial.StringFixed(2))
}

func TestAbrirCajaDuplicada(t *testing.T) {
	f := newFixture(t)
	f.abrirTurno(t, "100")

	_, err := f.caja.Abrir(context.Background(), f.cajero, dto.AbrirCajaRequest{MontoInicial: d("50")})
	requireKind(t, err, apierror.KindConflict)
	assert.ErrorContains(t, err, "turno abierto")
}

func TestOperacionSistemaRechazada(t *testing.T) {
	f := newFixture(t)
	f.abrirTurno(t, "100")

	for _, tipo := range []string{"venta", "cobro_credito"} {
		_, err := f.caja.RegistrarOperacion(context.Background(), f.cajero, dto.OperacionCajaRequest{
			Tipo: tipo, Monto: d("10"), Descripcion: "manual",
		})
		requireKind(t, err, apierror.KindValidation)
	}
	assert.Empty(t, f.cajaRepo.movimientos)
}

func TestOperacionSinTurno(t *testing.T) {
	f := newFixture(t)
	_, err := f.caja.RegistrarOperacion(context.Background(), f.cajero, dto.OperacionCajaRequest{
		Tipo: "gasto", Monto: d("10"), Descripcion: "papelería",
	})
	requireKind(t, err, apierror.KindConflict)
}

// cashSaleShift opens a 100 shift, sells 250 in cash and records a 20 expense.
func cashSaleShift(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	f.abrirTurno(t, "100")

	p := f.producto("Paracetamol 500mg", 10, "100", "250")
	id := f.borrador(t, nil, p, 1)
	_, err := f.ventas.RegistrarPago(ctx, f.cajero, id, dto.PagoRequest{Metodo: model.MetodoEfectivo, Monto: d("250")})
	require.NoError(t, err)
	_, err = f.ventas.Completar(ctx, f.cajero, id)
	require.NoError(t, err)

	_, err = f.caja.RegistrarOperacion(ctx, f.cajero, dto.OperacionCajaRequest{
		Tipo: "gasto", Monto: d("20"), Descripcion: "garrafón de agua",
	})
	require.NoError(t, err)
}

func TestCerrarCajaCuadrada(t *testing.T) {
	f := newFixture(t)
	cashSaleShift(t, f)

	resp, err := f.caja.Cerrar(context.Background(), f.cajero, dto.CerrarCajaRequest{MontoReal: d("330")})
	require.NoError(t, err)

	assert.Equal(t, "cerrada", resp.Estado)
	assert.Equal(t, "330.00", resp.MontoEsperado.StringFixed(2))
	assert.Equal(t, "250.00", resp.VentasEfectivo.StringFixed(2))
	assert.Equal(t, "20.00", resp.Egresos.StringFixed(2))
	assert.True(t, resp.Diferencia.IsZero())
	assert.False(t, resp.RequiereAuditoria)
	assert.Empty(t, f.jobs.notificaciones)

	_, err = f.caja.Actual(context.Background(), f.cajero)
	require.Error(t, err)
}

func TestCerrarCajaDentroDeTolerancia(t *testing.T) {
	f := newFixture(t)
	cashSaleShift(t, f)

	resp, err := f.caja.Cerrar(context.Background(), f.cajero, dto.CerrarCajaRequest{MontoReal: d("325")})
	require.NoError(t, err)
	assert.Equal(t, "cerrada", resp.Estado)
	assert.Equal(t, "-5.00", resp.Diferencia.StringFixed(2))
}

func TestCerrarCajaRequiereAuditoria(t *testing.T) {
	f := newFixture(t)
	cashSaleShift(t, f)

	resp, err := f.caja.Cerrar(context.Background(), f.cajero, dto.CerrarCajaRequest{MontoReal: d("300")})
	require.NoError(t, err)

	assert.Equal(t, "auditoria_requerida", resp.Estado)
	assert.True(t, resp.RequiereAuditoria)
	assert.Equal(t, "-30.00", resp.Diferencia.StringFixed(2))
	require.Len(t, f.jobs.notificaciones, 1)
	assert.Equal(t, worker.NotifAuditoriaCaja, f.jobs.notificaciones[0].Tipo)
}

func TestCerrarSinTurno(t *testing.T) {
	f := newFixture(t)
	_, err := f.caja.Cerrar(context.Background(), f.cajero, dto.CerrarCajaRequest{MontoReal: d("0")})
	requireKind(t, err, apierror.KindInvalidState)
}

func TestCobroCreditoEnEfectivoCuentaEnCaja(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cliente := f.clienteCredito("Ana Pérez", "1000")
	p := f.producto("Omeprazol", 10, "20", "80")
	f.ventaCredito(t, cliente, p, 1)

	f.abrirTurno(t, "0")
	_, err := f.cobranza.RegistrarAbono(ctx, f.cajero, cliente.ID, dto.PagoRequest{Metodo: model.MetodoEfectivo, Monto: d("80")}, "")
	require.NoError(t, err)

	resp, err := f.caja.Cerrar(ctx, f.cajero, dto.CerrarCajaRequest{MontoReal: d("80")})
	require.NoError(t, err)
	assert.Equal(t, "80.00", resp.MontoEsperado.StringFixed(2))
	assert.Len(t, f.cajaRepo.movimientosTipo(model.CajaCobroCredito), 1)
}
