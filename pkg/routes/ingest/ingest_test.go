package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/pkg/middleware"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
)

type fakeProcessor struct {
	batch *models.ListingBatch
}

func (f *fakeProcessor) Process(_ context.Context, batch *models.ListingBatch) (*models.BatchReport, error) {
	if batch.Source == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "source is required")
	}
	f.batch = batch
	return &models.BatchReport{BatchID: "run-1", Source: batch.Source, Received: len(batch.Listings)}, nil
}

func post(t *testing.T, processor Processor, body string) *httptest.ResponseRecorder {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	NewHandler(processor).Register(e.Group("/api/v1/ingest"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/batches", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateBatch(t *testing.T) {
	processor := &fakeProcessor{}
	rec := post(t, processor, `{"source": "dispensary-a", "listings": [{"name": "Blue Dream 3.5g", "price": 35, "thc": 22}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, processor.batch)
	require.Len(t, processor.batch.Listings, 1)
	assert.Equal(t, 22.0, processor.batch.Listings[0].THC.Value)

	var report models.BatchReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.BatchID)
	assert.Equal(t, 1, report.Received)
}

func TestCreateBatch_BadRequests(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, post(t, &fakeProcessor{}, `{"source": `).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, &fakeProcessor{}, `{"listings": []}`).Code)
}
