package service

import (
	"context"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const moduloAbonos = "abonos"

// CobranzaService collects payments on client credit accounts.
type CobranzaService interface {
	// RegistrarAbono applies a payment across the client's open invoices,
	// oldest first. Whatever finds no open invoice is reported as Excedente
	// and left unapplied. idemKey may be empty.
	RegistrarAbono(ctx context.Context, usuarioID, clienteID uuid.UUID, req dto.PagoRequest, idemKey string) (*dto.AbonoResponse, error)
	EstadoCuenta(ctx context.Context, clienteID uuid.UUID, filter dto.EstadoCuentaFilter) (*dto.EstadoCuentaResponse, error)
}

type cobranzaService struct {
	ventas   repository.VentaRepository
	clientes repository.ClienteRepository
	caja     SesionProvider
	locker   DocumentLocker
	idem     IdempotencyStore
}

func NewCobranzaService(
	ventas repository.VentaRepository,
	clientes repository.ClienteRepository,
	caja SesionProvider,
	locker DocumentLocker,
	idem IdempotencyStore,
) CobranzaService {
	return &cobranzaService{ventas: ventas, clientes: clientes, caja: caja, locker: locker, idem: idem}
}

func (s *cobranzaService) RegistrarAbono(ctx context.Context, usuarioID, clienteID uuid.UUID, req dto.PagoRequest, idemKey string) (*dto.AbonoResponse, error) {
	if !metodosPago[req.Metodo] {
		return nil, apierror.Invalid("Método de pago inválido: %s", req.Metodo)
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.Invalid("El monto debe ser mayor a cero")
	}

	if idemKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idemKey, moduloAbonos); err != nil {
			return nil, err
		}
	}

	resp, err := s.asignar(ctx, usuarioID, clienteID, req.Metodo, money(req.Monto))
	if err != nil {
		if idemKey != "" && s.idem != nil {
			if derr := s.idem.Delete(ctx, idemKey, moduloAbonos); derr != nil {
				log.Warn().Err(derr).Str("key", idemKey).Msg("cobranza: no se pudo liberar la llave de idempotencia")
			}
		}
		return nil, err
	}

	ev := log.Info().Str("cliente_id", clienteID.String()).Str("aplicado", resp.Aplicado.StringFixed(2))
	if resp.Excedente.IsPositive() {
		ev = ev.Str("excedente", resp.Excedente.StringFixed(2))
	}
	ev.Msg("cobranza: abono registrado")
	return resp, nil
}

// asignar walks the open invoices FIFO, applying min(restante, saldo) to each.
func (s *cobranzaService) asignar(ctx context.Context, usuarioID, clienteID uuid.UUID, metodo string, monto decimal.Decimal) (*dto.AbonoResponse, error) {
	var resp *dto.AbonoResponse
	err := withLock(ctx, s.locker, "cliente:"+clienteID.String(), func() error {
		return runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
			cliente, err := s.clientes.FindForUpdateTx(ctx, tx, clienteID)
			if err != nil {
				return lookupErr(err, "Cliente %s no encontrado", clienteID)
			}
			if !cliente.DeudaActual.IsPositive() {
				return apierror.Invalid("El cliente %s no tiene deuda pendiente", cliente.Nombre)
			}

			var sesion *model.SesionCaja
			if metodo == model.MetodoEfectivo {
				if sesion, err = s.caja.SesionAbiertaTx(ctx, tx, usuarioID); err != nil {
					return err
				}
			}

			abiertas, err := s.ventas.ListAbiertasClienteTx(ctx, tx, clienteID)
			if err != nil {
				return err
			}

			resp = &dto.AbonoResponse{ClienteID: clienteID.String(), Asignaciones: []dto.AsignacionAbono{}}
			restante := monto
			for i := range abiertas {
				if !restante.IsPositive() {
					break
				}
				v := &abiertas[i]
				aplicar := decimal.Min(restante, v.Saldo)
				pago := &model.VentaPago{
					ID:        uuid.New(),
					VentaID:   v.ID,
					Metodo:    metodo,
					Monto:     aplicar,
					UsuarioID: usuarioID,
				}
				if sesion != nil {
					pago.SesionCajaID = &sesion.ID
				}
				if err := s.ventas.CreatePagoTx(ctx, tx, pago); err != nil {
					return err
				}
				v.Pagado = v.Pagado.Add(aplicar)
				v.Saldo = v.Total.Sub(v.Pagado)
				v.Estado = estadoPagoDe(v.Total, v.Pagado)
				if err := s.ventas.UpdateTx(ctx, tx, v); err != nil {
					return err
				}
				restante = restante.Sub(aplicar)
				resp.Asignaciones = append(resp.Asignaciones, dto.AsignacionAbono{
					VentaID:       v.ID.String(),
					NumeroFactura: v.NumeroFactura,
					Monto:         aplicar,
					SaldoRestante: v.Saldo,
					Estado:        string(v.Estado),
				})
			}

			aplicado := monto.Sub(restante)
			resp.Aplicado = aplicado
			resp.Excedente = restante
			resp.DeudaRestante = decimal.Max(cliente.DeudaActual.Sub(aplicado), decimal.Zero)
			if !aplicado.IsPositive() {
				return nil
			}

			if sesion != nil {
				if _, err := s.caja.RegistrarMovimientoTx(ctx, tx, sesion, model.CajaCobroCredito, aplicado,
					"Abono de cliente "+cliente.Nombre, &cliente.ID); err != nil {
					return err
				}
			}
			return s.clientes.AjustarDeudaTx(ctx, tx, clienteID, aplicado.Neg())
		})
	})
	return resp, err
}

func (s *cobranzaService) EstadoCuenta(ctx context.Context, clienteID uuid.UUID, filter dto.EstadoCuentaFilter) (*dto.EstadoCuentaResponse, error) {
	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, lookupErr(err, "Cliente %s no encontrado", clienteID)
	}
	filter.Page, filter.Limit = dto.Page(filter.Page, filter.Limit, 20, 100)
	ventas, total, err := s.ventas.ListCuentaCliente(ctx, clienteID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.EstadoCuentaResponse{
		ClienteID:         cliente.ID.String(),
		Nombre:            cliente.Nombre,
		DeudaActual:       cliente.DeudaActual,
		LimiteCredito:     cliente.LimiteCredito,
		CreditoDisponible: cliente.CreditoDisponible(),
		Ventas:            make([]dto.VentaCuentaItem, 0, len(ventas)),
		Total:             total,
		Page:              filter.Page,
		Limit:             filter.Limit,
	}
	for _, v := range ventas {
		item := dto.VentaCuentaItem{
			VentaID:       v.ID.String(),
			NumeroFactura: v.NumeroFactura,
			Fecha:         fmtTime(v.CreatedAt),
			Total:         v.Total,
			Pagado:        v.Pagado,
			Saldo:         v.Saldo,
			Estado:        string(v.Estado),
			Pagos:         make([]dto.PagoResponse, 0, len(v.Pagos)),
		}
		if v.CompletadaAt != nil {
			item.Fecha = fmtTime(*v.CompletadaAt)
		}
		for _, p := range v.Pagos {
			item.Pagos = append(item.Pagos, pagoVentaToResponse(p))
		}
		resp.Ventas = append(resp.Ventas, item)
	}
	return resp, nil
}
