package reviewqueue

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/PKayu/cannabis-compare-sub000/pkg/appctx"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/review"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

type Service interface {
	ListPending(ctx context.Context, limit, offset int) (*review.Page, error)
	Get(ctx context.Context, id string) (*models.ReviewQueueEntry, error)
	Approve(ctx context.Context, id, reviewer string) (*models.ReviewOutcome, error)
	Reject(ctx context.Context, id, reviewer string) (*models.ReviewOutcome, error)
}

// Handler serves the admin surface of the review queue
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register registers review queue routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/reject", h.Reject)
}

// List returns pending entries, oldest first
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "reviewqueue_handler.List")
	defer span.End()

	limit, err := intParam(c, "limit")
	if err != nil {
		return err
	}
	offset, err := intParam(c, "offset")
	if err != nil {
		return err
	}

	page, err := h.service.ListPending(ctx, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// Get returns one entry in any status
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "reviewqueue_handler.Get")
	defer span.End()

	entry, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entry)
}

// Approve attaches the entry to its suggested parent
func (h *Handler) Approve(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "reviewqueue_handler.Approve")
	defer span.End()

	outcome, err := h.service.Approve(ctx, c.Param("id"), appctx.GetReviewer(ctx))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, outcome)
}

// Reject creates a new parent for the entry
func (h *Handler) Reject(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "reviewqueue_handler.Reject")
	defer span.End()

	outcome, err := h.service.Reject(ctx, c.Param("id"), appctx.GetReviewer(ctx))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, outcome)
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative integer")
	}
	return value, nil
}
