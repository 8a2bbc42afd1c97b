package billing

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ahmedtariq19/subledger/pkg/contextkeys"
	"github.com/ahmedtariq19/subledger/pkg/httputil"
)

// Handlers provides HTTP handlers for the billing API. Authentication and the
// admin check for plan mutations belong to the surrounding layer; handlers
// only trust the identity httputil.IdentityMiddleware resolved from the
// X-User-ID header onto the request context.
type Handlers struct {
	service *Service
	sweeper *Sweeper
}

// NewHandlers creates new billing handlers. sweeper may be nil when the sweep
// runs in a separate process.
func NewHandlers(service *Service, sweeper *Sweeper) *Handlers {
	return &Handlers{
		service: service,
		sweeper: sweeper,
	}
}

// RegisterRoutes registers all billing routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/plans", h.CreatePlan).Methods("POST")
	r.HandleFunc("/api/v1/plans", h.ListPlans).Methods("GET")
	r.HandleFunc("/api/v1/plans/{id}", h.UpdatePlan).Methods("PUT")

	r.HandleFunc("/api/v1/subscriptions", h.CreateSubscription).Methods("POST")
	r.HandleFunc("/api/v1/subscriptions/{id}/orders", h.RecordOrder).Methods("POST")
	r.HandleFunc("/api/v1/subscriptions/{id}/upgrade", h.UpgradeSubscription).Methods("POST")

	if h.sweeper != nil {
		// internal endpoint for operators; the scheduler calls RunSweepOnce directly
		r.HandleFunc("/internal/v1/sweep", h.RunSweep).Methods("POST")
	}
}

// CreatePlan handles POST /api/v1/plans
func (h *Handlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteValidationError(w, "name is required")
		return
	}
	if req.Price.IsNegative() {
		httputil.WriteValidationError(w, "price must not be negative")
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, plan)
}

// UpdatePlan handles PUT /api/v1/plans/{id}
func (h *Handlers) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdatePlanRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteValidationError(w, "name is required")
		return
	}
	if req.Price.IsNegative() {
		httputil.WriteValidationError(w, "price must not be negative")
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), id, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, plan)
}

// ListPlans handles GET /api/v1/plans
func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParseQueryInt(r, "page", 1)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	size, err := httputil.ParseQueryInt(r, "size", DefaultPlanPageSize)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.ListPlans(r.Context(), page, size)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}

// CreateSubscription handles POST /api/v1/subscriptions
func (h *Handlers) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	sub, err := h.service.CreateSubscription(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, sub)
}

// RecordOrder handles POST /api/v1/subscriptions/{id}/orders
func (h *Handlers) RecordOrder(w http.ResponseWriter, r *http.Request) {
	subID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req RecordOrderRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	order, err := h.service.RecordOrder(r.Context(), subID, userID, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, order)
}

// UpgradeSubscription handles POST /api/v1/subscriptions/{id}/upgrade
func (h *Handlers) UpgradeSubscription(w http.ResponseWriter, r *http.Request) {
	subID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req UpgradeSubscriptionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := h.service.UpgradeSubscription(r.Context(), subID, req.PlanID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// RunSweep handles POST /internal/v1/sweep
func (h *Handlers) RunSweep(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sweeper.RunSweepOnce(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, summary)
}

// callerID extracts the authenticated user id that IdentityMiddleware placed
// on the request context.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id := contextkeys.GetUserID(r.Context())
	if id == 0 {
		httputil.WriteUnauthorized(w, "missing or invalid X-User-ID header")
		return 0, false
	}
	return id, true
}

// writeDomainError maps billing errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case IsNotFound(err):
		httputil.WriteNotFoundError(w, err.Error())
	case IsConflict(err):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, ErrInvalidOrderStatus):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}
