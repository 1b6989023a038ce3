package handler

import (
	"net/http"
	"strconv"

	"github.com/JonyGudino21/pharma-back/internal/apierror"
	"github.com/JonyGudino21/pharma-back/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var colas = map[string]string{
	"comprobantes":   worker.QueueComprobantes,
	"notificaciones": worker.QueueNotificaciones,
}

// RequeueDLQ moves failed jobs back onto their queue once the cause is fixed
// (SMTP back up, disk space for PDFs). ?n= caps how many, default 100.
func RequeueDLQ(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, apierror.New("Redis no esta configurado"))
			return
		}
		queue, ok := colas[c.Param("cola")]
		if !ok {
			c.JSON(http.StatusNotFound, apierror.New("Cola desconocida"))
			return
		}
		n, err := strconv.Atoi(c.DefaultQuery("n", "100"))
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, apierror.New("n invalido"))
			return
		}

		moved, err := worker.Requeue(c.Request.Context(), rdb, queue, n)
		if err != nil {
			respondError(c, err)
			return
		}
		pending, _ := worker.DLQLength(c.Request.Context(), rdb, queue)
		c.JSON(http.StatusOK, gin.H{"cola": queue, "reencolados": moved, "pendientes": pending})
	}
}
