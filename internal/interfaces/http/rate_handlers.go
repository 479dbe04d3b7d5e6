package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ConfigurationRequest is the body of POST and PUT /rates
type ConfigurationRequest struct {
	Name      string            `json:"name"`
	TripBands []entity.RateBand `json:"trip_bands"`
	FuelBands []entity.RateBand `json:"fuel_bands"`
}

// TripQuoteRequest is the body of POST /api/quotes/trip
type TripQuoteRequest struct {
	CompanyID     int64              `json:"company_id"`
	VehicleType   entity.VehicleType `json:"vehicle_type"`
	BaseDistance  decimal.Decimal    `json:"base_distance"`
	ExtraDistance decimal.Decimal    `json:"extra_distance"`
}

// FuelQuoteRequest is the body of POST /api/quotes/fuel
type FuelQuoteRequest struct {
	CompanyID      int64              `json:"company_id"`
	VehicleType    entity.VehicleType `json:"vehicle_type"`
	OpeningReading int64              `json:"opening_reading"`
	ClosingReading int64              `json:"closing_reading"`
}

// CreateConfiguration handles POST /api/companies/:company_id/rates
func (h *Handlers) CreateConfiguration(c *gin.Context) {
	companyID, valid := int64Param(c, "company_id")
	if !valid {
		return
	}
	var body ConfigurationRequest
	if !bindJSON(c, &body) {
		return
	}

	cfg, err := h.services.Rates.CreateConfiguration(c.Request.Context(), &entity.RateConfiguration{
		CompanyID: companyID,
		Name:      body.Name,
		TripBands: body.TripBands,
		FuelBands: body.FuelBands,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, cfg)
}

// ReplaceBands handles PUT /api/companies/:company_id/rates
func (h *Handlers) ReplaceBands(c *gin.Context) {
	companyID, valid := int64Param(c, "company_id")
	if !valid {
		return
	}
	var body ConfigurationRequest
	if !bindJSON(c, &body) {
		return
	}

	cfg, err := h.services.Rates.ReplaceBands(c.Request.Context(), companyID, body.TripBands, body.FuelBands)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, cfg)
}

// GetConfiguration handles GET /api/companies/:company_id/rates
func (h *Handlers) GetConfiguration(c *gin.Context) {
	companyID, valid := int64Param(c, "company_id")
	if !valid {
		return
	}

	cfg, err := h.services.Rates.GetConfiguration(c.Request.Context(), companyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, cfg)
}

// RateTable handles GET /api/companies/:company_id/rate-tables/:kind/:vehicle_type
func (h *Handlers) RateTable(c *gin.Context) {
	companyID, valid := int64Param(c, "company_id")
	if !valid {
		return
	}

	table, err := h.services.Rates.RateTable(c.Request.Context(), companyID,
		entity.RequestKind(c.Param("kind")), entity.VehicleType(c.Param("vehicle_type")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, table)
}

// ImportWorkbook handles POST /api/companies/:company_id/rates/import (multipart field "file")
func (h *Handlers) ImportWorkbook(c *gin.Context) {
	companyID, valid := int64Param(c, "company_id")
	if !valid {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing workbook file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, fmt.Errorf("open uploaded workbook: %w", err))
		return
	}
	defer file.Close()

	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}

	cfg, err := h.services.Rates.ImportWorkbook(c.Request.Context(), companyID, name, file)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, cfg)
}

// ExportWorkbook handles GET /api/companies/:company_id/rates/export
func (h *Handlers) ExportWorkbook(c *gin.Context) {
	companyID, valid := int64Param(c, "company_id")
	if !valid {
		return
	}

	var buf bytes.Buffer
	if err := h.services.Rates.ExportWorkbook(c.Request.Context(), companyID, &buf); err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="rates_%d.xlsx"`, companyID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// QuoteTrip handles POST /api/quotes/trip
func (h *Handlers) QuoteTrip(c *gin.Context) {
	var body TripQuoteRequest
	if !bindJSON(c, &body) {
		return
	}

	quote, err := h.services.Rates.QuoteTrip(c.Request.Context(),
		body.CompanyID, body.VehicleType, body.BaseDistance, body.ExtraDistance)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, quote)
}

// QuoteFuel handles POST /api/quotes/fuel
func (h *Handlers) QuoteFuel(c *gin.Context) {
	var body FuelQuoteRequest
	if !bindJSON(c, &body) {
		return
	}

	quote, err := h.services.Rates.QuoteFuel(c.Request.Context(),
		body.CompanyID, body.VehicleType, body.OpeningReading, body.ClosingReading)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, quote)
}
