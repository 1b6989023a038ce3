package handler

import (
	"net/http"

	"github.com/JonyGudino21/pharma-back/internal/dto"
	"github.com/JonyGudino21/pharma-back/internal/middleware"
	"github.com/JonyGudino21/pharma-back/internal/service"

	"github.com/gin-gonic/gin"
)

type ComprasHandler struct{ svc service.CompraService }

func NewComprasHandler(svc service.CompraService) *ComprasHandler {
	return &ComprasHandler{svc: svc}
}

// Crear godoc
// @Summary Registra una orden de compra a proveedor
// @Tags compras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearCompraRequest true "Compra"
// @Success 201 {object} dto.CompraResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/compras [post]
func (h *ComprasHandler) Crear(c *gin.Context) {
	var req dto.CrearCompraRequest
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

// Actualizar godoc
// @Summary Cambia proveedor o folio de factura de una compra pendiente de entrega
// @Tags compras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Param body body dto.ActualizarCompraRequest true "Campos a cambiar"
// @Success 200 {object} dto.CompraResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/compras/{id} [put]
func (h *ComprasHandler) Actualizar(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarCompraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), middleware.UsuarioID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AgregarItem godoc
// @Summary Agrega una línea a una compra pendiente de entrega
// @Tags compras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Param body body dto.ItemCompraRequest true "Línea"
// @Success 200 {object} dto.CompraResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/compras/{id}/items [post]
func (h *ComprasHandler) AgregarItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ItemCompraRequest
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

// ActualizarItem godoc
// @Summary Cambia cantidad o costo de una línea; el total no puede quedar por debajo de lo pagado
// @Tags compras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Param item_id path string true "ID de línea"
// @Param body body dto.ActualizarItemCompraRequest true "Campos a cambiar"
// @Success 200 {object} dto.CompraResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/compras/{id}/items/{item_id} [put]
func (h *ComprasHandler) ActualizarItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}
	var req dto.ActualizarItemCompraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarItem(c.Request.Context(), middleware.UsuarioID(c), id, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EliminarItem godoc
// @Summary Quita una línea; la compra conserva al menos una
// @Tags compras
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Param item_id path string true "ID de línea"
// @Success 200 {object} dto.CompraResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/compras/{id}/items/{item_id} [delete]
func (h *ComprasHandler) EliminarItem(c *gin.Context) {
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

// Recibir godoc
// @Summary Marca la compra como recibida: entra stock, recalcula costo promedio y carga el saldo al proveedor
// @Tags compras
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Success 200 {object} dto.CompraResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/compras/{id}/recibir [post]
func (h *ComprasHandler) Recibir(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Recibir(c.Request.Context(), middleware.UsuarioID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarPago godoc
// @Summary Registra un pago al proveedor sobre la compra
// @Tags compras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Param body body dto.PagoRequest true "Pago"
// @Success 200 {object} dto.CompraResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/compras/{id}/pagos [post]
func (h *ComprasHandler) RegistrarPago(c *gin.Context) {
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

// EliminarPago godoc
// @Summary Anula un pago registrado por error
// @Tags compras
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Param pago_id path string true "ID de pago"
// @Success 200 {object} dto.CompraResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/compras/{id}/pagos/{pago_id} [delete]
func (h *ComprasHandler) EliminarPago(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pagoID, ok := pathID(c, "pago_id")
	if !ok {
		return
	}
	resp, err := h.svc.EliminarPago(c.Request.Context(), middleware.UsuarioID(c), id, pagoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar godoc
// @Summary Cancela la compra revirtiendo stock y saldo del proveedor
// @Tags compras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Param body body dto.CancelarCompraRequest true "Motivo y destino del dinero pagado"
// @Success 200 {object} dto.CompraResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/compras/{id}/cancelar [post]
func (h *ComprasHandler) Cancelar(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelarCompraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cancelar(c.Request.Context(), middleware.UsuarioID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Detalle de una compra con líneas y pagos
// @Tags compras
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Success 200 {object} dto.CompraResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/compras/{id} [get]
func (h *ComprasHandler) Obtener(c *gin.Context) {
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
// @Summary Lista compras con filtros
// @Tags compras
// @Produce json
// @Security BearerAuth
// @Param proveedor_id query string false "Proveedor"
// @Param estado query string false "pendiente | parcial | pagada | cancelada"
// @Param entrega query string false "pendiente | recibida | cancelada"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamano de pagina"
// @Success 200 {object} dto.CompraListResponse
// @Router /v1/compras [get]
func (h *ComprasHandler) Listar(c *gin.Context) {
	var filter dto.CompraFilter
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

// HistorialCostos godoc
// @Summary Historial de cambios de costo promedio de un producto, más reciente primero
// @Tags inventario
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de producto"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamano de pagina"
// @Success 200 {object} dto.HistorialCostoListResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/inventario/productos/{id}/historial-costos [get]
func (h *ComprasHandler) HistorialCostos(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var filter dto.HistorialCostoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.HistorialCostos(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
