package handler

import (
	"net/http"

	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/middleware"
	"github.com/JonyGudino21/pharma-back/internal/service"

	"github.com/gin-gonic/gin"
)

// IdempotencyHeader lets a client retry an abono without applying it twice.
const IdempotencyHeader = "Idempotency-Key"

type ClientesHandler struct{ svc service.CobranzaService }

func NewClientesHandler(svc service.CobranzaService) *ClientesHandler {
	return &ClientesHandler{svc: svc}
}

// RegistrarAbono godoc
// @Summary Abono a la cuenta del cliente, aplicado a sus facturas abiertas de la mas antigua a la mas reciente
// @Tags clientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cliente"
// @Param Idempotency-Key header string false "Llave para reintentos seguros"
// @Param body body dto.PagoRequest true "Abono"
// @Success 201 {object} dto.AbonoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/clientes/{id}/abonos [post]
func (h *ClientesHandler) RegistrarAbono(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.PagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarAbono(c.Request.Context(), middleware.UsuarioID(c), id, req, c.GetHeader(IdempotencyHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// EstadoCuenta godoc
// @Summary Estado de cuenta del cliente
// @Tags clientes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cliente"
// @Param desde query string false "YYYY-MM-DD"
// @Param hasta query string false "YYYY-MM-DD"
// @Success 200 {object} dto.EstadoCuentaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/clientes/{id}/estado-cuenta [get]
func (h *ClientesHandler) EstadoCuenta(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var filter dto.EstadoCuentaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.EstadoCuenta(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
