package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/fleet-reimbursement/internal/application/service"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	domainwf "github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

// transitionActions are the URL suffixes of the approval endpoints
var transitionActions = []string{"submit", "fm-approve", "hr-approve", "confirm", "reject", "reset"}

// TransitionRequest is the optional body of a transition endpoint
type TransitionRequest struct {
	Actor string `json:"actor"`
	Note  string `json:"note"`
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body service.CreateRequestInput
	if !bindJSON(c, &body) {
		return
	}

	req, err := h.services.Requests.Create(c.Request.Context(), body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, req)
}

// ListRequests handles GET /api/requests[?state=&company_id=&limit=&offset=]
func (h *Handlers) ListRequests(c *gin.Context) {
	filter := entity.RequestFilter{
		State: domainwf.State(c.Query("state")),
	}

	var err error
	if filter.CompanyID, err = queryInt64(c, "company_id"); err != nil {
		fail(c, http.StatusBadRequest, "invalid company_id")
		return
	}
	limit, err := queryInt64(c, "limit")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt64(c, "offset")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid offset")
		return
	}
	filter.Limit = int(limit)
	filter.Offset = int(offset)

	requests, err := h.services.Requests.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if requests == nil {
		requests = []*entity.ReimbursementRequest{}
	}
	ok(c, http.StatusOK, requests)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}

	req, err := h.services.Requests.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// RequestHistory handles GET /api/requests/:id/history
func (h *Handlers) RequestHistory(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}

	history, err := h.services.Requests.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if history == nil {
		history = []*entity.RequestHistory{}
	}
	ok(c, http.StatusOK, history)
}

// RequestPayment handles GET /api/requests/:id/payment
func (h *Handlers) RequestPayment(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}

	payment, err := h.services.Payments.GetByRequest(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, payment)
}

// PermittedTriggers handles GET /api/requests/:id/triggers
func (h *Handlers) PermittedTriggers(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}

	triggers, err := h.services.Workflow.PermittedTriggers(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if triggers == nil {
		triggers = []domainwf.Trigger{}
	}
	ok(c, http.StatusOK, triggers)
}

// Recompute handles POST /api/requests/:id/recompute
func (h *Handlers) Recompute(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}

	req, err := h.services.Requests.Recompute(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// Transition returns the handler of POST /api/requests/:id/{action}
func (h *Handlers) Transition(action string) gin.HandlerFunc {
	trigger, known := domainwf.ParseTrigger(action)
	if !known {
		panic("unknown transition action: " + action)
	}

	return func(c *gin.Context) {
		id, valid := int64Param(c, "id")
		if !valid {
			return
		}

		// Chunked bodies arrive with ContentLength -1; an empty one decodes to io.EOF.
		var body TransitionRequest
		if c.Request.ContentLength != 0 && c.Request.Body != nil && c.Request.Body != http.NoBody {
			if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
				fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
				return
			}
		}
		if body.Actor == "" {
			body.Actor = c.GetHeader("X-Actor")
		}

		req, err := h.services.Workflow.Transition(c.Request.Context(), id, trigger, body.Actor, body.Note)
		if err != nil {
			h.respondError(c, err)
			return
		}
		ok(c, http.StatusOK, req)
	}
}

// AddTripSegment handles POST /api/requests/:id/trip-segments
func (h *Handlers) AddTripSegment(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	var body entity.TripSegment
	if !bindJSON(c, &body) {
		return
	}

	seg, err := h.services.Requests.AddTripSegment(c.Request.Context(), id, &body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, seg)
}

// UpdateTripSegment handles PUT /api/requests/:id/trip-segments/:segment_id
func (h *Handlers) UpdateTripSegment(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	segmentID, valid := int64Param(c, "segment_id")
	if !valid {
		return
	}
	var body entity.TripSegment
	if !bindJSON(c, &body) {
		return
	}
	body.ID = segmentID

	seg, err := h.services.Requests.UpdateTripSegment(c.Request.Context(), id, &body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, seg)
}

// RemoveTripSegment handles DELETE /api/requests/:id/trip-segments/:segment_id
func (h *Handlers) RemoveTripSegment(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	segmentID, valid := int64Param(c, "segment_id")
	if !valid {
		return
	}

	if err := h.services.Requests.RemoveTripSegment(c.Request.Context(), id, segmentID); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": segmentID})
}

// AddFuelSegment handles POST /api/requests/:id/fuel-segments
func (h *Handlers) AddFuelSegment(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	var body entity.FuelSegment
	if !bindJSON(c, &body) {
		return
	}

	seg, err := h.services.Requests.AddFuelSegment(c.Request.Context(), id, &body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, seg)
}

// UpdateFuelSegment handles PUT /api/requests/:id/fuel-segments/:segment_id
func (h *Handlers) UpdateFuelSegment(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	segmentID, valid := int64Param(c, "segment_id")
	if !valid {
		return
	}
	var body entity.FuelSegment
	if !bindJSON(c, &body) {
		return
	}
	body.ID = segmentID

	seg, err := h.services.Requests.UpdateFuelSegment(c.Request.Context(), id, &body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, seg)
}

// RemoveFuelSegment handles DELETE /api/requests/:id/fuel-segments/:segment_id
func (h *Handlers) RemoveFuelSegment(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	segmentID, valid := int64Param(c, "segment_id")
	if !valid {
		return
	}

	if err := h.services.Requests.RemoveFuelSegment(c.Request.Context(), id, segmentID); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": segmentID})
}

// queryInt64 reads an optional integer query parameter; absent means zero
func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
