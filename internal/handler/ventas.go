package handler

import (
	"net/http"

	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/middleware"
	"github.com/JonyGudino21/pharma-back/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler { return &VentasHandler{svc: svc} }

// Crear godoc
// @Summary Crea una venta en borrador
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearVentaRequest true "Cliente e items"
// @Success 201 {object} dto.VentaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/ventas [post]
func (h *VentasHandler) Crear(c *gin.Context) {
	var req dto.CrearVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.UsuarioID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AgregarItem godoc
// @Summary Agrega un producto a una venta en borrador
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Param body body dto.ItemVentaRequest true "Item"
// @Success 200 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas/{id}/items [post]
func (h *VentasHandler) AgregarItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ItemVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarItem(c.Request.Context(), middleware.UsuarioID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EliminarItem godoc
// @Summary Quita una linea de una venta en borrador
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Param item_id path string true "ID de item"
// @Success 200 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas/{id}/items/{item_id} [delete]
func (h *VentasHandler) EliminarItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}
	resp, err := h.svc.EliminarItem(c.Request.Context(), middleware.UsuarioID(c), id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Completar godoc
// @Summary Completa la venta: descuenta stock, asigna factura y carga a credito el saldo
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Success 200 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/ventas/{id}/completar [post]
func (h *VentasHandler) Completar(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Completar(c.Request.Context(), middleware.UsuarioID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarPago godoc
// @Summary Registra un pago sobre la venta
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Param body body dto.PagoRequest true "Pago"
// @Success 200 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/ventas/{id}/pagos [post]
func (h *VentasHandler) RegistrarPago(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.PagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), middleware.UsuarioID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar godoc
// @Summary Cancela la venta, reingresa stock y reembolsa lo cobrado
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Param body body dto.CancelarVentaRequest true "Motivo"
// @Success 200 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas/{id}/cancelar [post]
func (h *VentasHandler) Cancelar(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cancelar(c.Request.Context(), middleware.UsuarioID(c), id, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CrearDevolucion godoc
// @Summary Devolucion parcial de una venta completada
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Param body body dto.DevolucionRequest true "Items devueltos"
// @Success 201 {object} dto.DevolucionResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas/{id}/devoluciones [post]
func (h *VentasHandler) CrearDevolucion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DevolucionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearDevolucion(c.Request.Context(), middleware.UsuarioID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary Obtiene una venta con items y pagos
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Success 200 {object} dto.VentaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ventas/{id} [get]
func (h *VentasHandler) Obtener(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary Lista ventas con filtros
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param flujo query string false "borrador | completada | cancelada"
// @Param estado query string false "pendiente | parcial | pagada | cancelada"
// @Param cliente_id query string false "Cliente"
// @Param desde query string false "YYYY-MM-DD"
// @Param hasta query string false "YYYY-MM-DD"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamano de pagina"
// @Success 200 {object} dto.VentaListResponse
// @Router /v1/ventas [get]
func (h *VentasHandler) Listar(c *gin.Context) {
	var filter dto.VentaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
