package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

// OdometerRequest is the body of PUT /api/vehicles/:id/odometer
type OdometerRequest struct {
	Odometer decimal.Decimal `json:"odometer"`
}

// RegisterVehicle handles POST /api/vehicles
func (h *Handlers) RegisterVehicle(c *gin.Context) {
	var body entity.Vehicle
	if !bindJSON(c, &body) {
		return
	}

	vehicle, err := h.services.Vehicles.Register(c.Request.Context(), &body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, vehicle)
}

// ListVehicles handles GET /api/vehicles[?vehicle_type=]
func (h *Handlers) ListVehicles(c *gin.Context) {
	vehicles, err := h.services.Vehicles.List(c.Request.Context(), entity.VehicleType(c.Query("vehicle_type")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if vehicles == nil {
		vehicles = []*entity.Vehicle{}
	}
	ok(c, http.StatusOK, vehicles)
}

// GetVehicle handles GET /api/vehicles/:id
func (h *Handlers) GetVehicle(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}

	vehicle, err := h.services.Vehicles.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, vehicle)
}

// UpdateOdometer handles PUT /api/vehicles/:id/odometer
func (h *Handlers) UpdateOdometer(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	var body OdometerRequest
	if !bindJSON(c, &body) {
		return
	}

	if err := h.services.Vehicles.UpdateOdometer(c.Request.Context(), id, body.Odometer); err != nil {
		h.respondError(c, err)
		return
	}
	vehicle, err := h.services.Vehicles.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, vehicle)
}
