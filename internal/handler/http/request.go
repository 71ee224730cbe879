package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	"github.com/cmlabs-hris/attendance-bot/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type RequestHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Deny(w http.ResponseWriter, r *http.Request)
}

type requestHandlerImpl struct {
	requestService request.RequestService
}

func NewRequestHandler(requestService request.RequestService) RequestHandler {
	return &requestHandlerImpl{
		requestService: requestService,
	}
}

// List handles GET /requests
func (h *requestHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := request.ListRequest{
		Status:     q.Get("status"),
		Type:       q.Get("type"),
		EmployeeID: q.Get("employee_id"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	}

	filter, err := req.Filter()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	reqs, err := h.requestService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, request.NewRequestResponses(reqs), &response.Meta{TotalItems: len(reqs)})
}

// Get handles GET /requests/{id}
func (h *requestHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.requestService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, request.NewRequestResponse(req))
}

// Approve handles POST /requests/{id}/approve
func (h *requestHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// Deny handles POST /requests/{id}/deny
func (h *requestHandlerImpl) Deny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *requestHandlerImpl) decide(w http.ResponseWriter, r *http.Request, approved bool) {
	var req request.DecideRequest

	// The body is optional; only deny reads a reason from it.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Failed to decode request body", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	decider, err := jwt.EmailFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req.ID = chi.URLParam(r, "id")
	req.Approved = approved
	req.DeciderID = decider

	result, err := h.requestService.Decide(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Request denied"
	if approved {
		message = "Request approved"
	}
	response.SuccessWithMessage(w, message, request.NewRequestResponse(result))
}
