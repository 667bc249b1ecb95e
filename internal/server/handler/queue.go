package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/execution"
)

// QueueService son las operaciones de la cola que usa el handler.
type QueueService interface {
	List(ctx context.Context, pendingOnly bool) ([]domain.QueueItem, error)
	Reject(ctx context.Context, id int64, source domain.TriggerSource) (domain.QueueItem, error)
	Reopen(ctx context.Context, id int64, source domain.TriggerSource) (domain.QueueItem, error)
}

// ApprovalService ejecuta la aprobación de un item.
type ApprovalService interface {
	Execute(ctx context.Context, id int64, source domain.TriggerSource) (execution.ExecResult, error)
}

// QueueHandler sirve la cola de revisión manual.
type QueueHandler struct {
	queue    QueueService
	approver ApprovalService
	logger   *slog.Logger
}

// NewQueueHandler crea el handler de la cola.
func NewQueueHandler(queue QueueService, approver ApprovalService, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{
		queue:    queue,
		approver: approver,
		logger:   logHandler(logger, "queue"),
	}
}

type listQueueResponse struct {
	Items []domain.QueueItem `json:"items"`
}

type queueActionRequest struct {
	Action string `json:"action"`
	ID     *int64 `json:"id"`
	ItemID *int64 `json:"itemId"`
}

type approveResponse struct {
	OK            bool                 `json:"ok"`
	Action        domain.QueueAction   `json:"action"`
	Executed      bool                 `json:"executed"`
	Success       bool                 `json:"success"`
	Message       string               `json:"message"`
	ExecutionMode domain.ExecutionMode `json:"execution_mode"`
}

type actionResponse struct {
	OK     bool               `json:"ok"`
	Action domain.QueueAction `json:"action"`
}

// List devuelve los items de la cola.
// GET /api/queue?pending=true
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	pending := r.URL.Query().Get("pending") == "true"

	items, err := h.queue.List(r.Context(), pending)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list queue failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list queue")
		return
	}
	if items == nil {
		items = []domain.QueueItem{}
	}
	writeJSON(w, http.StatusOK, listQueueResponse{Items: items})
}

// Act aplica approve, reject o reopen sobre un item.
// POST /api/queue {"action": "approve", "id": 3}
func (h *QueueHandler) Act(w http.ResponseWriter, r *http.Request) {
	var req queueActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	id := req.ID
	if id == nil {
		id = req.ItemID
	}
	action, err := domain.ParseQueueAction(req.Action)
	if err != nil || id == nil {
		writeError(w, http.StatusBadRequest, "action and id are required")
		return
	}

	switch action {
	case domain.ActionApprove:
		h.approve(w, r, *id)
	case domain.ActionReject:
		_, err = h.queue.Reject(r.Context(), *id, domain.SourceManual)
		h.respondTransition(w, r, action, *id, err)
	case domain.ActionReopen:
		_, err = h.queue.Reopen(r.Context(), *id, domain.SourceManual)
		h.respondTransition(w, r, action, *id, err)
	}
}

func (h *QueueHandler) approve(w http.ResponseWriter, r *http.Request, id int64) {
	res, err := h.approver.Execute(r.Context(), id, domain.SourceManual)
	if err != nil {
		var l3 *domain.Layer3Error
		switch {
		case errors.Is(err, domain.ErrNotFoundOrProcessed):
			writeError(w, http.StatusNotFound, domain.ErrNotFoundOrProcessed.Error())
		case errors.As(err, &l3):
			writeError(w, http.StatusBadRequest, l3.Reason)
		case errors.Is(err, domain.ErrMissingTokenID):
			writeError(w, http.StatusBadRequest, domain.ErrMissingTokenID.Error())
		default:
			h.logger.ErrorContext(r.Context(), "approve failed",
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to approve item")
		}
		return
	}

	writeJSON(w, http.StatusOK, approveResponse{
		OK:            true,
		Action:        domain.ActionApprove,
		Executed:      res.Mode == domain.ExecutionLive,
		Success:       res.Success,
		Message:       res.Message,
		ExecutionMode: res.Mode,
	})
}

func (h *QueueHandler) respondTransition(w http.ResponseWriter, r *http.Request, action domain.QueueAction, id int64, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, actionResponse{OK: true, Action: action})
	case errors.Is(err, domain.ErrNotFoundOrProcessed):
		writeError(w, http.StatusNotFound, domain.ErrNotFoundOrProcessed.Error())
	default:
		h.logger.ErrorContext(r.Context(), "queue transition failed",
			slog.String("action", string(action)),
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to update item")
	}
}
