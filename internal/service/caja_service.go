package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/model"
	"github.com/JonyGudino21/pharma-back/internal/repository"
	"github.com/JonyGudino21/pharma-back/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SesionProvider is what the other engines need from the cash drawer: the
// caller's open shift and a way to append movements to it.
type SesionProvider interface {
	// SesionAbiertaTx returns Conflict when the user has no open shift.
	SesionAbiertaTx(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) (*model.SesionCaja, error)
	// RegistrarMovimientoTx appends a movement. monto is a magnitude; the
	// sign comes from tipo.
	RegistrarMovimientoTx(ctx context.Context, tx *gorm.DB, sesion *model.SesionCaja, tipo model.TipoMovimientoCaja, monto decimal.Decimal, descripcion string, referenciaID *uuid.UUID) (*model.MovimientoCaja, error)
}

type CajaService interface {
	SesionProvider

	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	RegistrarOperacion(ctx context.Context, usuarioID uuid.UUID, req dto.OperacionCajaRequest) (*dto.MovimientoCajaResponse, error)
	Cerrar(ctx context.Context, usuarioID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error)

	Actual(ctx context.Context, usuarioID uuid.UUID) (*dto.SesionCajaResponse, error)
	Obtener(ctx context.Context, sesionID uuid.UUID) (*dto.SesionCajaResponse, error)
	Listar(ctx context.Context, filter dto.SesionFilter) (*dto.SesionListResponse, error)
}

type cajaService struct {
	repo       repository.CajaRepository
	tolerancia decimal.Decimal
	jobs       JobDispatcher
}

func NewCajaService(repo repository.CajaRepository, tolerancia decimal.Decimal, jobs JobDispatcher) CajaService {
	return &cajaService{repo: repo, tolerancia: tolerancia, jobs: jobs}
}

func errSinTurno() error {
	return apierror.Conflict("No hay un turno de caja abierto. Abre uno antes de operar en efectivo")
}

// ── SesionProvider ────────────────────────────────────────────────────────────

func (s *cajaService) SesionAbiertaTx(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	sesion, err := s.repo.FindSesionAbiertaTx(ctx, tx, usuarioID)
	if err != nil {
		return nil, err
	}
	if sesion == nil {
		return nil, errSinTurno()
	}
	return sesion, nil
}

func (s *cajaService) RegistrarMovimientoTx(ctx context.Context, tx *gorm.DB, sesion *model.SesionCaja, tipo model.TipoMovimientoCaja, monto decimal.Decimal, descripcion string, referenciaID *uuid.UUID) (*model.MovimientoCaja, error) {
	if sesion.Estado != model.SesionAbierta {
		return nil, apierror.InvalidState("El turno de caja ya está cerrado")
	}
	monto = money(monto.Abs())
	if !tipo.Entrada() {
		monto = monto.Neg()
	}
	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         tipo,
		Monto:        monto,
		Descripcion:  descripcion,
		ReferenciaID: referenciaID,
		UsuarioID:    sesion.UsuarioID,
	}
	if err := s.repo.CreateMovimientoTx(ctx, tx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if req.MontoInicial.IsNegative() {
		return nil, apierror.Invalid("El monto inicial no puede ser negativo")
	}
	sesion := &model.SesionCaja{
		UsuarioID:    usuarioID,
		MontoInicial: money(req.MontoInicial),
		Estado:       model.SesionAbierta,
		Notas:        req.Notas,
		OpenedAt:     time.Now(),
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		existing, err := s.repo.FindSesionAbiertaTx(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apierror.Conflict("Ya tienes un turno abierto. Ciérralo antes de abrir otro")
		}
		return s.repo.CreateSesionTx(ctx, tx, sesion)
	})
	if err != nil {
		// Two concurrent opens can both pass the read; the partial unique
		// index rejects the second insert.
		if isUniqueViolation(err) {
			return nil, apierror.Conflict("Ya tienes un turno abierto. Ciérralo antes de abrir otro")
		}
		return nil, err
	}
	log.Info().Str("sesion_id", sesion.ID.String()).Str("usuario_id", usuarioID.String()).
		Str("monto_inicial", sesion.MontoInicial.String()).Msg("caja: turno abierto")
	return sesionToResponse(sesion), nil
}

// ── RegistrarOperacion ────────────────────────────────────────────────────────

var operacionesManuales = map[model.TipoMovimientoCaja]bool{
	model.CajaIngresoManual:      true,
	model.CajaEgresoManual:       true,
	model.CajaGasto:              true,
	model.CajaReintegroProveedor: true,
}

func (s *cajaService) RegistrarOperacion(ctx context.Context, usuarioID uuid.UUID, req dto.OperacionCajaRequest) (*dto.MovimientoCajaResponse, error) {
	tipo := model.TipoMovimientoCaja(req.Tipo)
	if tipo.GeneradoPorSistema() {
		return nil, apierror.Invalid("Los movimientos de tipo %s los genera el sistema", tipo)
	}
	if !operacionesManuales[tipo] {
		return nil, apierror.Invalid("Tipo de operación de caja inválido: %s", req.Tipo)
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.Invalid("El monto debe ser mayor a cero")
	}

	var mov *model.MovimientoCaja
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err := s.SesionAbiertaTx(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		mov, err = s.RegistrarMovimientoTx(ctx, tx, sesion, tipo, req.Monto, req.Descripcion, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := movimientoCajaToResponse(*mov)
	return &resp, nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// Blind count: the cashier declares MontoReal before seeing the expected
// amount. A variance beyond tolerance still closes the shift, flagged for
// audit.

func (s *cajaService) Cerrar(ctx context.Context, usuarioID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error) {
	if req.MontoReal.IsNegative() {
		return nil, apierror.Invalid("El monto real no puede ser negativo")
	}

	var resp *dto.CierreCajaResponse
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err := s.repo.FindSesionAbiertaTx(ctx, tx, usuarioID)
		if err != nil {
			return err
		}
		if sesion == nil {
			return apierror.InvalidState("No hay un turno de caja abierto para cerrar")
		}

		ventasEfectivo, err := s.repo.SumPagosEfectivoTx(ctx, tx, sesion.ID)
		if err != nil {
			return err
		}
		porTipo, err := s.repo.SumMovimientosPorTipoTx(ctx, tx, sesion.ID)
		if err != nil {
			return err
		}

		// Sale-generated movements mirror cash VentaPago rows already
		// counted in ventasEfectivo.
		ingresos, egresos := decimal.Zero, decimal.Zero
		for tipo, monto := range porTipo {
			if tipo.GeneradoPorSistema() {
				continue
			}
			if monto.IsNegative() {
				egresos = egresos.Add(monto.Neg())
			} else {
				ingresos = ingresos.Add(monto)
			}
		}

		esperado := money(sesion.MontoInicial.Add(ventasEfectivo).Add(ingresos).Sub(egresos))
		real := money(req.MontoReal)
		diferencia := real.Sub(esperado)

		estado := model.SesionCerrada
		if diferencia.Abs().GreaterThan(s.tolerancia) {
			estado = model.SesionAuditoriaRequerida
		}

		now := time.Now()
		sesion.MontoEsperado = &esperado
		sesion.MontoReal = &real
		sesion.Diferencia = &diferencia
		sesion.Estado = estado
		sesion.ClosedAt = &now
		sesion.Notas = appendNota(sesion.Notas, req.Notas)
		if err := s.repo.UpdateSesionTx(ctx, tx, sesion); err != nil {
			return err
		}

		resp = &dto.CierreCajaResponse{
			SesionCajaID:      sesion.ID.String(),
			Estado:            string(estado),
			MontoInicial:      sesion.MontoInicial,
			VentasEfectivo:    ventasEfectivo,
			Ingresos:          ingresos,
			Egresos:           egresos,
			MontoEsperado:     esperado,
			MontoReal:         real,
			Diferencia:        diferencia,
			RequiereAuditoria: estado == model.SesionAuditoriaRequerida,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.RequiereAuditoria {
		log.Warn().Str("sesion_id", resp.SesionCajaID).Str("usuario_id", usuarioID.String()).
			Str("diferencia", resp.Diferencia.String()).Msg("caja: cierre con diferencia, requiere auditoría")
		s.notificar(ctx, worker.NotificacionPayload{
			Tipo:   worker.NotifAuditoriaCaja,
			Asunto: "Cierre de caja requiere auditoría",
			Mensaje: fmt.Sprintf("Turno %s: esperado %s, contado %s, diferencia %s.",
				resp.SesionCajaID, resp.MontoEsperado.StringFixed(2), resp.MontoReal.StringFixed(2), resp.Diferencia.StringFixed(2)),
		})
	} else {
		log.Info().Str("sesion_id", resp.SesionCajaID).Msg("caja: turno cerrado")
	}
	return resp, nil
}

func (s *cajaService) notificar(ctx context.Context, p worker.NotificacionPayload) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.EnqueueNotificacion(ctx, p); err != nil {
		log.Error().Err(err).Str("tipo", p.Tipo).Msg("caja: no se pudo encolar la notificación")
	}
}

func appendNota(actual, nueva *string) *string {
	if nueva == nil || strings.TrimSpace(*nueva) == "" {
		return actual
	}
	if actual == nil || *actual == "" {
		return nueva
	}
	joined := *actual + "\n" + *nueva
	return &joined
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Actual(ctx context.Context, usuarioID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbiertaTx(ctx, nil, usuarioID)
	if err != nil {
		return nil, err
	}
	if sesion == nil {
		return nil, apierror.NotFound("No hay un turno de caja abierto")
	}
	movs, err := s.repo.ListMovimientos(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	sesion.Movimientos = movs
	return sesionToResponse(sesion), nil
}

func (s *cajaService) Obtener(ctx context.Context, sesionID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, lookupErr(err, "Turno de caja %s no encontrado", sesionID)
	}
	return sesionToResponse(sesion), nil
}

func (s *cajaService) Listar(ctx context.Context, filter dto.SesionFilter) (*dto.SesionListResponse, error) {
	filter.Page, filter.Limit = dto.Page(filter.Page, filter.Limit, 20, 100)
	sesiones, total, err := s.repo.ListSesiones(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SesionCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		data = append(data, *sesionToResponse(&sesiones[i]))
	}
	return &dto.SesionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
