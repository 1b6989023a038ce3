package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "secreto-de-pruebas"

func init() { gin.SetMode(gin.TestMode) }

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Detail
}

// ── JWT ───────────────────────────────────────────────────────────────────────

func authRouter() *gin.Engine {
	r := gin.New()
	g := r.Group("/", JWTAuth(testSecret))
	g.GET("/yo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"usuario_id": UsuarioID(c).String(), "rol": GetClaims(c).Rol})
	})
	g.GET("/gestion", RequireRole(RolSupervisor, RolAdministrador), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func bearer(t *testing.T, path, secret, rol string, ttl time.Duration) *http.Request {
	t.Helper()
	token, err := SignToken(secret, uuid.New(), "cajero1", rol, ttl)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestJWTAuth(t *testing.T) {
	r := authRouter()

	w := do(r, httptest.NewRequest(http.MethodGet, "/yo", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, bearer(t, "/yo", testSecret, RolCajero, time.Hour))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, RolCajero, body["rol"])
	_, err := uuid.Parse(body["usuario_id"])
	assert.NoError(t, err)

	w = do(r, bearer(t, "/yo", "otro-secreto", RolCajero, time.Hour))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, bearer(t, "/yo", testSecret, RolCajero, -time.Minute))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token invalido o expirado", detail(t, w))
}

func TestRequireRole(t *testing.T) {
	r := authRouter()

	w := do(r, bearer(t, "/gestion", testSecret, RolCajero, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, bearer(t, "/gestion", testSecret, RolSupervisor, time.Hour))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

// ── Errors ────────────────────────────────────────────────────────────────────

func TestErrorHandlerMapeaTipos(t *testing.T) {
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{apierror.NotFound("Venta no encontrada"), http.StatusNotFound, "Venta no encontrada"},
		{apierror.Conflict("Documento en uso"), http.StatusConflict, "Documento en uso"},
		{apierror.InvalidState("La compra ya fue recibida"), http.StatusConflict, "La compra ya fue recibida"},
		{apierror.Insufficient("Stock insuficiente"), http.StatusUnprocessableEntity, "Stock insuficiente"},
		{apierror.Invalid("monto inválido"), http.StatusBadRequest, "monto inválido"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "Error interno del servidor"},
	}
	for _, tc := range tests {
		t.Run(tc.detail, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID(), ErrorHandler())
			r.GET("/x", func(c *gin.Context) { _ = c.Error(tc.err) })

			w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.detail, detail(t, w))
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestIDPropagado(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := do(r, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

// ── Rate limiting ─────────────────────────────────────────────────────────────

func limitedRouter(rdb *redis.Client, limit int) *gin.Engine {
	r := gin.New()
	r.Use(RateLimiter(rdb, limit, time.Hour))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiterRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	r := limitedRouter(rdb, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// fails open when Redis goes away
	mr.Close()
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestRateLimiterMemoria(t *testing.T) {
	r := limitedRouter(nil, 2)
	req := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.9.8.7:1234"
		return req
	}

	assert.Equal(t, http.StatusOK, do(r, req()).Code)
	assert.Equal(t, http.StatusOK, do(r, req()).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, req()).Code)
}

// ── Headers ───────────────────────────────────────────────────────────────────

func TestCORSYSecureHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecureHeaders(false), CORS([]string{"https://pos.farmacia.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://pos.farmacia.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	w := do(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://pos.farmacia.test", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
