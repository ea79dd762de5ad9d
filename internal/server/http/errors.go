package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskctl/internal/domain/plan"
)

// statusFor maps a plan.Kind to an HTTP status.
func statusFor(kind plan.Kind) int {
	switch kind {
	case plan.KindNotFound:
		return http.StatusNotFound
	case plan.KindInvalidState, plan.KindValidation, plan.KindMissingComponent:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {detail: string} at the status err's Kind maps to.
func respondError(c *gin.Context, err error) {
	status := statusFor(plan.KindOf(err))
	c.JSON(status, gin.H{"detail": err.Error()})
}
