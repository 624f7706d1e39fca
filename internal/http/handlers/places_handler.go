// README: Place lookup handlers for the destination field.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quickride/internal/places"
	"quickride/internal/types"
)

type PlacesHandler struct {
	places places.Suggester
	log    logrus.FieldLogger
}

func NewPlacesHandler(s places.Suggester, log logrus.FieldLogger) *PlacesHandler {
	return &PlacesHandler{places: s, log: log}
}

func (h *PlacesHandler) Suggest(c *gin.Context) {
	var near *types.Point
	if c.Query("lat") != "" || c.Query("lng") != "" {
		p, ok := queryPoint(c)
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid coordinates")
			return
		}
		near = &p
	}
	out, err := h.places.Suggest(c.Request.Context(), c.Query("q"), near)
	if err != nil {
		h.log.WithError(err).Warn("place suggestions")
		writeError(c, http.StatusBadGateway, "suggestions unavailable")
		return
	}
	if out == nil {
		out = []places.Suggestion{}
	}
	writeJSON(c, http.StatusOK, gin.H{"suggestions": out})
}

func (h *PlacesHandler) Reverse(c *gin.Context) {
	p, ok := queryPoint(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid coordinates")
		return
	}
	addr, err := h.places.Reverse(c.Request.Context(), p)
	if err != nil {
		h.log.WithError(err).Warn("reverse geocoding")
		writeError(c, http.StatusBadGateway, "reverse geocoding unavailable")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"address": addr})
}

func queryPoint(c *gin.Context) (types.Point, bool) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return types.Point{}, false
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return types.Point{}, false
	}
	p := types.Point{Lat: lat, Lng: lng}
	return p, p.Valid()
}
