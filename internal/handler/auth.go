package handler

import (
	"errors"
	"net/http"
	"strconv"

	"clinic-ai-service/internal/dispatcher"
	"clinic-ai-service/internal/domain"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// RequireIdentity extracts the verified identity that the upstream auth
// gateway attaches to every request. Authentication itself lives
// outside this service.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseUint(c.GetHeader("X-User-Id"), 10, 64)
		if err != nil || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid identity"})
			return
		}
		role := domain.Role(c.GetHeader("X-User-Role"))
		switch role {
		case domain.RoleUser, domain.RolePatient, domain.RoleAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid role"})
			return
		}
		c.Set(actorKey, domain.Actor{
			UserID:  uint(userID),
			Role:    role,
			Premium: c.GetHeader("X-Premium") == "true",
		})
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	actor, _ := c.Get(actorKey)
	return actor.(domain.Actor)
}

// respondError maps the error taxonomy onto HTTP statuses. Every
// rejection carries a structured reason.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSlotTaken),
		errors.Is(err, domain.ErrDuplicateActive),
		errors.Is(err, domain.ErrQuotaEmpty),
		errors.Is(err, domain.ErrNoFinishedAppointment):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, dispatcher.ErrAwaitTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, dispatcher.ErrRemote):
		status = http.StatusBadGateway
	case errors.Is(err, dispatcher.ErrQueueFull):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
