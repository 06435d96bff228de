package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// writeError maps service errors onto HTTP responses. Timespan and
// availability rejections are reported under the "rooms" key.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		switch verr.Kind {
		case domain.KindTimespanInvalid:
			c.JSON(http.StatusBadRequest, gin.H{"rooms": []string{verr.Message}})
			return
		case domain.KindRoomsUnavailable:
			c.JSON(http.StatusBadRequest, gin.H{"rooms": []string{verr.Message}, "conflicts": verr.Rooms})
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrMalformedInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateRoom):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.MsgDuplicateRoom})
	case errors.Is(err, domain.ErrRoomInUse):
		c.JSON(http.StatusForbidden, gin.H{"error": domain.MsgRoomInUse})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// writeBindError reports a request body that failed to decode or validate.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.Join(msgs, "; ")})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt", "lte":
		return field + " must be a positive integer up to " + strconv.Itoa(domain.MaxRoomNumber)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
