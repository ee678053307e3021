package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/splitlist/taskboard/api/transport"
	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/pkg/httpcontext"
	taskUC "github.com/splitlist/taskboard/usecase/task"
)

type AssignmentHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewAssignmentHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Set assignment status
// @Tags assignments
// @Router /api/v1/tasks/{id}/assignments/{assignee}/status [put]
func (h *AssignmentHandler) SetStatus(ctx *fasthttp.RequestCtx) {
	viewer, err := h.viewer(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	taskID, _ := ctx.UserValue("id").(string)
	assigneeID, _ := ctx.UserValue("assignee").(string)
	if taskID == "" || assigneeID == "" {
		h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, "missing task or assignee id"))
		return
	}

	var req transport.AssignmentStatusRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.SetStatus(stdCtx, viewer, taskID, assigneeID, domain.AssignmentStatus(req.Status), req.Note)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Replace assignee set
// @Tags assignments
// @Router /api/v1/tasks/{id}/assignees [put]
func (h *AssignmentHandler) SyncAssignees(ctx *fasthttp.RequestCtx) {
	viewer, err := h.viewer(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	taskID, _ := ctx.UserValue("id").(string)
	if taskID == "" {
		h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, "missing task id"))
		return
	}

	var req transport.AssigneeSyncRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	added, removed, err := h.uc.SyncAssignees(stdCtx, viewer, taskID, req.AssigneeIDs)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.SyncResponse{Added: added, Removed: removed})
}
