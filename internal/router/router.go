package router

import (
	"time"

	"github.com/JonyGudino21/pharma-back/internal/config"
	"github.com/JonyGudino21/pharma-back/internal/handler"
	"github.com/JonyGudino21/pharma-back/internal/infra"
	"github.com/JonyGudino21/pharma-back/internal/middleware"
	"github.com/JonyGudino21/pharma-back/internal/repository"
	"github.com/JonyGudino21/pharma-back/internal/service"
	"github.com/JonyGudino21/pharma-back/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil: document locks degrade to row locks only, abono
// idempotency keys are ignored and no async jobs are enqueued.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.SecureHeaders(cfg.IsProduction()))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, cfg.RateLimitPerMin, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		locker service.DocumentLocker = infra.NoopLocker{}
		jobs   service.JobDispatcher
		idem   service.IdempotencyStore
	)
	if rdb != nil {
		locker = infra.NewRedisLocker(rdb, cfg.DocumentLockTTL)
		jobs = worker.NewDispatcher(rdb)
		idem = infra.NewIdempotencyStore(rdb, 24*time.Hour)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	productoRepo := repository.NewProductoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	precioClienteRepo := repository.NewPrecioClienteRepository(db)
	compraRepo := repository.NewCompraRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	historialPrecioRepo := repository.NewHistorialPrecioRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo, cfg.KardexDefaultLimit)
	cajaSvc := service.NewCajaService(cajaRepo, cfg.Tolerance(), jobs)
	ventaSvc := service.NewVentaService(ventaRepo, productoRepo, clienteRepo, precioClienteRepo, inventarioSvc, cajaSvc, locker, jobs)
	compraSvc := service.NewCompraService(compraRepo, proveedorRepo, productoRepo, historialPrecioRepo, inventarioSvc, cajaSvc, locker)
	cobranzaSvc := service.NewCobranzaService(ventaRepo, clienteRepo, cajaSvc, locker, idem)

	// ── Handlers ─────────────────────────────────────────────────────────────
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	comprasH := handler.NewComprasHandler(compraSvc)
	clientesH := handler.NewClientesHandler(cobranzaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailer))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	todos := middleware.RequireRole(middleware.RolCajero, middleware.RolSupervisor, middleware.RolAdministrador)
	gestion := middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador)

	v1 := r.Group("/v1", jwtMW)
	{
		ventas := v1.Group("/ventas", todos)
		{
			ventas.POST("", ventasH.Crear)
			ventas.GET("", ventasH.Listar)
			ventas.GET("/:id", ventasH.Obtener)
			ventas.POST("/:id/items", ventasH.AgregarItem)
			ventas.DELETE("/:id/items/:item_id", ventasH.EliminarItem)
			ventas.POST("/:id/completar", ventasH.Completar)
			ventas.POST("/:id/pagos", ventasH.RegistrarPago)
			ventas.POST("/:id/devoluciones", ventasH.CrearDevolucion)
			// Cancelling a completed sale moves stock and money back
			ventas.POST("/:id/cancelar", gestion, ventasH.Cancelar)
		}

		clientes := v1.Group("/clientes", todos)
		{
			clientes.POST("/:id/abonos", clientesH.RegistrarAbono)
			clientes.GET("/:id/estado-cuenta", clientesH.EstadoCuenta)
		}

		caja := v1.Group("/caja", todos)
		{
			caja.POST("/abrir", cajaH.Abrir)
			caja.POST("/movimientos", cajaH.RegistrarOperacion)
			caja.POST("/cerrar", cajaH.Cerrar)
			caja.GET("/actual", cajaH.Actual)
			caja.GET("", gestion, cajaH.Listar)
			caja.GET("/:id", gestion, cajaH.Obtener)
		}

		compras := v1.Group("/compras", gestion)
		{
			compras.POST("", comprasH.Crear)
			compras.GET("", comprasH.Listar)
			compras.GET("/:id", comprasH.Obtener)
			compras.PUT("/:id", comprasH.Actualizar)
			compras.POST("/:id/items", comprasH.AgregarItem)
			compras.PUT("/:id/items/:item_id", comprasH.ActualizarItem)
			compras.DELETE("/:id/items/:item_id", comprasH.EliminarItem)
			compras.POST("/:id/recibir", comprasH.Recibir)
			compras.POST("/:id/pagos", comprasH.RegistrarPago)
			compras.DELETE("/:id/pagos/:pago_id", comprasH.EliminarPago)
			compras.POST("/:id/cancelar", comprasH.Cancelar)
		}

		inv := v1.Group("/inventario", gestion)
		{
			inv.POST("/movimientos", inventarioH.RegistrarMovimiento)
			inv.POST("/ajustes", inventarioH.RegistrarAjuste)
			inv.GET("/productos/:id/kardex", inventarioH.Kardex)
			inv.GET("/productos/:id/kardex.xlsx", inventarioH.ExportarKardex)
			inv.GET("/productos/:id/historial-costos", comprasH.HistorialCostos)
			inv.GET("/valorizacion", inventarioH.Valorizacion)
			inv.GET("/alertas", inventarioH.Alertas)
		}

		admin := v1.Group("/admin", middleware.RequireRole(middleware.RolAdministrador))
		{
			admin.POST("/dlq/:cola/reencolar", handler.RequeueDLQ(rdb))
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
