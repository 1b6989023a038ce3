package middleware

import (
	"net/http"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StatusFor maps a business failure kind to its HTTP status.
func StatusFor(kind apierror.Kind) int {
	switch kind {
	case apierror.KindNotFound:
		return http.StatusNotFound
	case apierror.KindConflict, apierror.KindInvalidState:
		return http.StatusConflict
	case apierror.KindInsufficientResource:
		return http.StatusUnprocessableEntity
	case apierror.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler turns errors pushed with c.Error into JSON responses.
// Typed business failures keep their Spanish detail; anything else is
// logged and answered with a generic 500 so internals never reach clients.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if kind := apierror.KindOf(err); kind != "" {
			log.Debug().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("kind", string(kind)).
				Msg(err.Error())
			c.AbortWithStatusJSON(StatusFor(kind), apierror.New(err.Error()))
			return
		}

		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Err(err).
			Msg("unhandled error")

		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}

// Recovery handles panics and converts them into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
			}
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency, and request_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
