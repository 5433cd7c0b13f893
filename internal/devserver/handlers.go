package devserver

import (
	"context"
	"errors"

	"github.com/volcanic/imageman-go/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

// ImageService is the contract the handlers need; the concrete Service
// satisfies it, tests plug in mocks.
type ImageService interface {
	Create(ctx context.Context, req *CreateRequest) (*ResponseBody, error)
	Fetch(ctx context.Context, idOrRef string) (*ResponseBody, error)
	Update(ctx context.Context, idOrRef string, req *CreateRequest) (*ResponseBody, error)
	Delete(ctx context.Context, idOrRef string) error
}

type Handler struct {
	service ImageService
}

func NewHandler(svc ImageService) *Handler {
	return &Handler{service: svc}
}

// Register mounts the imageman wire protocol on the engine.
func (h *Handler) Register(engine *ginext.Engine) {
	engine.GET("/ping", h.Ping)
	engine.POST("/api/v1/images", h.Create)
	engine.GET("/api/v1/images/:id", h.Fetch)
	engine.POST("/api/v1/images/:id", h.Update)
	engine.DELETE("/api/v1/images/:id", h.Delete)
}

func (h *Handler) Ping(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h *Handler) Create(ctx *ginext.Context) {
	var req CreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, ErrBadRequest)
		return
	}

	res, err := h.service.Create(ctx.Request.Context(), &req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(200, res)
}

func (h *Handler) Fetch(ctx *ginext.Context) {
	res, err := h.service.Fetch(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(200, res)
}

func (h *Handler) Update(ctx *ginext.Context) {
	var req CreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, ErrBadRequest)
		return
	}

	res, err := h.service.Update(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(200, res)
}

func (h *Handler) Delete(ctx *ginext.Context) {
	if err := h.service.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(200, map[string]string{"message": "deleted"})
}

// writeError maps service errors onto the wire error contract the
// client classifies against.
func (h *Handler) writeError(ctx *ginext.Context, err error) {
	reqCtx := ctx.Request.Context()
	status, code := statusOf(err)
	if status == 500 {
		logger := mwlogger.FromContext(reqCtx)
		logger.Error().Err(err).Msg("request failed")
	}

	ctx.JSON(status, ErrorBody{
		RequestID:  mwlogger.RequestID(reqCtx),
		Message:    err.Error(),
		StatusCode: status,
		ErrorCode:  code,
	})
}

func statusOf(err error) (status, code int) {
	switch {
	case errors.Is(err, ErrDuplicate):
		return 400, CodeDuplicateImage
	case errors.Is(err, ErrUnsupportedType):
		return 400, CodeFileNotSupported
	case errors.Is(err, ErrBadRequest):
		return 400, 0
	case errors.Is(err, ErrNotFound):
		return 404, 0
	default:
		return 500, 0
	}
}
