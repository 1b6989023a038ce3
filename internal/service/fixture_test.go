package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/infra"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errDuplicada = apierror.Conflict("La operación ya fue procesada")

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fixture wires every engine over the in-memory repositories.
type fixture struct {
	productos   *stubProductoRepo
	movimientos *stubMovimientoRepo
	clientes    *stubClienteRepo
	precios     *stubPrecioClienteRepo
	ventasRepo  *stubVentaRepo
	cajaRepo    *stubCajaRepo
	proveedores *stubProveedorRepo
	historial   *stubHistorialPrecioRepo
	comprasRepo *stubCompraRepo
	jobs        *stubJobs
	idem        *stubIdem
	trail       *lockTrail

	inventario service.InventarioService
	caja       service.CajaService
	ventas     service.VentaService
	compras    service.CompraService
	cobranza   service.CobranzaService

	cajero uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		productos:   newStubProductoRepo(),
		movimientos: &stubMovimientoRepo{},
		clientes:    newStubClienteRepo(),
		precios:     newStubPrecioClienteRepo(),
		proveedores: newStubProveedorRepo(),
		historial:   &stubHistorialPrecioRepo{},
		comprasRepo: newStubCompraRepo(),
		jobs:        &stubJobs{},
		idem:        &stubIdem{},
		cajero:      uuid.New(),
	}
	f.ventasRepo = newStubVentaRepo(f.clientes)
	f.trail = &lockTrail{}
	f.productos.trail = f.trail
	f.clientes.trail = f.trail
	f.ventasRepo.trail = f.trail
	f.proveedores.trail = f.trail
	f.comprasRepo.trail = f.trail
	f.cajaRepo = newStubCajaRepo(f.ventasRepo)

	locker := infra.NoopLocker{}
	f.inventario = service.NewInventarioService(f.productos, f.movimientos, 50)
	f.caja = service.NewCajaService(f.cajaRepo, d("10"), f.jobs)
	f.ventas = service.NewVentaService(f.ventasRepo, f.productos, f.clientes, f.precios, f.inventario, f.caja, locker, f.jobs)
	f.compras = service.NewCompraService(f.comprasRepo, f.proveedores, f.productos, f.historial, f.inventario, f.caja, locker)
	f.cobranza = service.NewCobranzaService(f.ventasRepo, f.clientes, f.caja, locker, f.idem)
	return f
}

func (f *fixture) producto(nombre string, stock int, costo, precio string) *model.Producto {
	p := &model.Producto{
		ID:           uuid.New(),
		CodigoBarras: "750" + uuid.NewString()[:8],
		Nombre:       nombre,
		PrecioCosto:  d(costo),
		PrecioVenta:  d(precio),
		StockActual:  stock,
		StockMinimo:  2,
		Activo:       true,
	}
	f.productos.mu.Lock()
	f.productos.productos[p.ID] = p
	f.productos.mu.Unlock()
	return p
}

func (f *fixture) clienteCredito(nombre, limite string) *model.Cliente {
	c := &model.Cliente{
		ID:            uuid.New(),
		Nombre:        nombre,
		TieneCredito:  true,
		LimiteCredito: d(limite),
		Activo:        true,
	}
	f.clientes.mu.Lock()
	f.clientes.clientes[c.ID] = c
	f.clientes.mu.Unlock()
	return c
}

func (f *fixture) proveedor(nombre string) *model.Proveedor {
	p := &model.Proveedor{ID: uuid.New(), RazonSocial: nombre, RFC: "RFC" + uuid.NewString()[:6], Activo: true}
	f.proveedores.mu.Lock()
	f.proveedores.proveedores[p.ID] = p
	f.proveedores.mu.Unlock()
	return p
}

func (f *fixture) abrirTurno(t *testing.T, inicial string) *dto.SesionCajaResponse {
	t.Helper()
	s, err := f.caja.Abrir(context.Background(), f.cajero, dto.AbrirCajaRequest{MontoInicial: d(inicial)})
	require.NoError(t, err)
	return s
}

// borrador creates a draft sale of cantidad units of p.
func (f *fixture) borrador(t *testing.T, cliente *model.Cliente, p *model.Producto, cantidad int) uuid.UUID {
	t.Helper()
	req := dto.CrearVentaRequest{Items: []dto.ItemVentaRequest{{ProductoID: p.ID.String(), Cantidad: cantidad}}}
	if cliente != nil {
		id := cliente.ID.String()
		req.ClienteID = &id
	}
	v, err := f.ventas.Crear(context.Background(), f.cajero, req)
	require.NoError(t, err)
	return uuid.MustParse(v.ID)
}

// ventaCredito completes a sale charged entirely to the client's account.
func (f *fixture) ventaCredito(t *testing.T, cliente *model.Cliente, p *model.Producto, cantidad int) uuid.UUID {
	t.Helper()
	id := f.borrador(t, cliente, p, cantidad)
	_, err := f.ventas.Completar(context.Background(), f.cajero, id)
	require.NoError(t, err)
	return id
}

func requireKind(t *testing.T, err error, kind apierror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apierror.Is(err, kind), "esperado %v, obtenido %v", kind, err)
}

// mayorMenor returns the two products ordered by descending id, the reverse
// of the order row locks must follow.
func mayorMenor(p, q *model.Producto) (mayor, menor *model.Producto) {
	if bytes.Compare(p.ID[:], q.ID[:]) > 0 {
		return p, q
	}
	return q, p
}

func ptr[T any](v T) *T { return &v }
