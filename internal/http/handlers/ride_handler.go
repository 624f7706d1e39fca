// README: Ride handlers for create/list/get/cancel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quickride/internal/modules/ride"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type driverReq struct {
	Name    string  `json:"name"`
	Photo   string  `json:"photo"`
	Rating  float64 `json:"rating"`
	Vehicle string  `json:"vehicle"`
	Plate   string  `json:"plate"`
}

type createRideReq struct {
	Destination       string     `json:"destination"`
	PassengerName     string     `json:"passenger_name"`
	PassengerCPF      string     `json:"passenger_cpf"`
	PassengerWhatsapp string     `json:"passenger_whatsapp"`
	Category          string     `json:"category"`
	Driver            *driverReq `json:"driver"`
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := ride.CreateCommand{
		Destination:       req.Destination,
		PassengerName:     req.PassengerName,
		PassengerCPF:      req.PassengerCPF,
		PassengerWhatsapp: req.PassengerWhatsapp,
		Category:          ride.Category(req.Category),
	}
	if d := req.Driver; d != nil {
		cmd.Driver = &ride.DriverInfo{Name: d.Name, Photo: d.Photo, Rating: d.Rating, Vehicle: d.Vehicle, Plate: d.Plate}
	}
	r, err := h.rides.Create(c.Request.Context(), cmd)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"ride_id": r.ID, "os_number": r.OSNumber, "status": r.Status})
}

func (h *RideHandler) ListActive(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"rides": h.rides.ListActive()})
}

func (h *RideHandler) ListHistory(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"rides": h.rides.ListHistory()})
}

func (h *RideHandler) Get(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	r, coll, err := h.rides.Get(id)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"ride": r, "collection": coll.String()})
}

// Cancel serves both POST /cancel and DELETE. Unknown ids answer 200 with
// cancelled=false: cancellation is idempotent.
func (h *RideHandler) Cancel(c *gin.Context) {
	id, ok := rideID(c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"cancelled": h.rides.Cancel(id)})
}
