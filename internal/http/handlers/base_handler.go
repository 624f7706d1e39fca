// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quickride/internal/modules/ride"
	"quickride/internal/types"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields []ride.FieldError `json:"fields,omitempty"`
}

// rideID reads the :id path parameter. Ride ids are UUIDs, so anything else
// is rejected before reaching the services.
func rideID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return "", false
	}
	return types.ID(id), true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeRideError(c *gin.Context, err error) {
	_ = c.Error(err)
	var verr *ride.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: ride.ErrInvalidRideParameters.Error(), Fields: verr.Fields})
	case errors.Is(err, ride.ErrInvalidRideParameters):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrDuplicateRide), errors.Is(err, ride.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
