package ingest

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
)

type Processor interface {
	Process(ctx context.Context, batch *models.ListingBatch) (*models.BatchReport, error)
}

// Handler accepts scraper batches over HTTP
type Handler struct {
	processor Processor
}

func NewHandler(processor Processor) *Handler {
	return &Handler{processor: processor}
}

// Register registers ingestion routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/batches", h.CreateBatch)
}

// CreateBatch resolves a batch synchronously and returns its report
func (h *Handler) CreateBatch(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "ingest_handler.CreateBatch")
	defer span.End()

	var batch models.ListingBatch
	if err := c.Bind(&batch); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	report, err := h.processor.Process(ctx, &batch)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}
