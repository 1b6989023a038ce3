package service_test

import (
	"context"
	"testing"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tresFacturas leaves the client owing 30, 50 and 20 on three invoices, in
// that order.
func tresFacturas(t *testing.T, f *fixture) (*model.Cliente, []uuid.UUID) {
	t.Helper()
	cliente := f.clienteCredito("Farmacia Rural San José", "1000")
	p := f.producto("Suero oral", 100, "4", "10")
	ids := []uuid.UUID{
		f.ventaCredito(t, cliente, p, 3),
		f.ventaCredito(t, cliente, p, 5),
		f.ventaCredito(t, cliente, p, 2),
	}
	require.Equal(t, "100.00", f.clientes.deuda(cliente.ID).StringFixed(2))
	return cliente, ids
}

func TestAbonoFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cliente, ids := tresFacturas(t, f)

	resp, err := f.cobranza.RegistrarAbono(ctx, f.cajero, cliente.ID, dto.PagoRequest{Metodo: model.MetodoTransferencia, Monto: d("60")}, "")
	require.NoError(t, err)

	assert.Equal(t, "60.00", resp.Aplicado.StringFixed(2))
	assert.True(t, resp.Excedente.IsZero())
	assert.Equal(t, "40.00", resp.DeudaRestante.StringFixed(2))
	require.Len(t, resp.Asignaciones, 2)
	assert.Equal(t, ids[0].String(), resp.Asignaciones[0].VentaID)
	assert.Equal(t, "30.00", resp.Asignaciones[0].Monto.StringFixed(2))
	assert.Equal(t, "pagada", resp.Asignaciones[0].Estado)
	assert.Equal(t, ids[1].String(), resp.Asignaciones[1].VentaID)
	assert.Equal(t, "30.00", resp.Asignaciones[1].Monto.StringFixed(2))
	assert.Equal(t, "20.00", resp.Asignaciones[1].SaldoRestante.StringFixed(2))
	assert.Equal(t, "parcial", resp.Asignaciones[1].Estado)

	tercera, err := f.ventas.Obtener(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, "20.00", tercera.Saldo.StringFixed(2))
	assert.Equal(t, "pendiente", tercera.Estado)
	assert.Equal(t, "40.00", f.clientes.deuda(cliente.ID).StringFixed(2))
}

func TestAbonoConExcedente(t *testing.T) {
	f := newFixture(t)
	cliente, _ := tresFacturas(t, f)

	resp, err := f.cobranza.RegistrarAbono(context.Background(), f.cajero, cliente.ID, dto.PagoRequest{Metodo: model.MetodoTarjeta, Monto: d("120")}, "")
	require.NoError(t, err)

	assert.Equal(t, "100.00", resp.Aplicado.StringFixed(2))
	assert.Equal(t, "20.00", resp.Excedente.StringFixed(2))
	assert.True(t, resp.DeudaRestante.IsZero())
	assert.Len(t, resp.Asignaciones, 3)
	assert.True(t, f.clientes.deuda(cliente.ID).IsZero())
}

func TestAbonoSinDeuda(t *testing.T) {
	f := newFixture(t)
	cliente := f.clienteCredito("Ana Pérez", "500")

	_, err := f.cobranza.RegistrarAbono(context.Background(), f.cajero, cliente.ID, dto.PagoRequest{Metodo: model.MetodoTarjeta, Monto: d("10")}, "")
	requireKind(t, err, apierror.KindValidation)
}

func TestAbonoEfectivoRequiereTurno(t *testing.T) {
	f := newFixture(t)
	cliente, _ := tresFacturas(t, f)

	_, err := f.cobranza.RegistrarAbono(context.Background(), f.cajero, cliente.ID, dto.PagoRequest{Metodo: model.MetodoEfectivo, Monto: d("10")}, "")
	requireKind(t, err, apierror.KindConflict)
	assert.Equal(t, "100.00", f.clientes.deuda(cliente.ID).StringFixed(2))
}

func TestAbonoIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cliente, _ := tresFacturas(t, f)
	req := dto.PagoRequest{Metodo: model.MetodoTransferencia, Monto: d("25")}

	_, err := f.cobranza.RegistrarAbono(ctx, f.cajero, cliente.ID, req, "abono-001")
	require.NoError(t, err)
	_, err = f.cobranza.RegistrarAbono(ctx, f.cajero, cliente.ID, req, "abono-001")
	requireKind(t, err, apierror.KindConflict)

	assert.Equal(t, "75.00", f.clientes.deuda(cliente.ID).StringFixed(2))
}

func TestAbonoFallidoLiberaLlave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cliente, _ := tresFacturas(t, f)
	req := dto.PagoRequest{Metodo: model.MetodoEfectivo, Monto: d("25")}

	_, err := f.cobranza.RegistrarAbono(ctx, f.cajero, cliente.ID, req, "abono-002")
	requireKind(t, err, apierror.KindConflict)

	// With a shift open the same key can be retried.
	f.abrirTurno(t, "0")
	resp, err := f.cobranza.RegistrarAbono(ctx, f.cajero, cliente.ID, req, "abono-002")
	require.NoError(t, err)
	assert.Equal(t, "25.00", resp.Aplicado.StringFixed(2))
}

func TestEstadoCuenta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cliente, _ := tresFacturas(t, f)

	ec, err := f.cobranza.EstadoCuenta(ctx, cliente.ID, dto.EstadoCuentaFilter{})
	require.NoError(t, err)
	assert.Equal(t, "100.00", ec.DeudaActual.StringFixed(2))
	assert.Equal(t, "900.00", ec.CreditoDisponible.StringFixed(2))
	assert.Len(t, ec.Ventas, 3)
	assert.EqualValues(t, 3, ec.Total)

	_, err = f.cobranza.EstadoCuenta(ctx, uuid.New(), dto.EstadoCuentaFilter{})
	requireKind(t, err, apierror.KindNotFound)
}
