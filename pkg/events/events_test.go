package events

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/pkg/appctx"
)

type recordingPublisher struct {
	published []*CatalogEvent
	err       error
}

func (p *recordingPublisher) PublishEvents(_ context.Context, events []*CatalogEvent) error {
	p.published = append(p.published, events...)
	return p.err
}

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestEmitter_Emit(t *testing.T) {
	publisher := &recordingPublisher{}
	emitter := NewEmitter(publisher, silentLogger())

	emitter.Emit(context.Background(),
		&CatalogEvent{Type: TypeListingResolved, VariantID: "v1"},
		&CatalogEvent{Type: TypeListingFlagged, ReviewEntryID: "r1"},
	)

	assert.Len(t, publisher.published, 2)
	for _, evt := range publisher.published {
		assert.False(t, evt.Timestamp.IsZero())
	}
}

func TestEmitter_FillsBatchContext(t *testing.T) {
	publisher := &recordingPublisher{}
	emitter := NewEmitter(publisher, silentLogger())

	ctx := appctx.SetSource(context.Background(), "dispensary-a")
	ctx = appctx.SetBatchID(ctx, "run-7")
	emitter.Emit(ctx,
		&CatalogEvent{Type: TypeReviewApproved, ReviewEntryID: "r1"},
		&CatalogEvent{Type: TypeListingResolved, Source: "dispensary-b", BatchID: "run-8"},
	)

	require.Len(t, publisher.published, 2)
	assert.Equal(t, "dispensary-a", publisher.published[0].Source)
	assert.Equal(t, "run-7", publisher.published[0].BatchID)
	assert.Equal(t, "dispensary-b", publisher.published[1].Source)
	assert.Equal(t, "run-8", publisher.published[1].BatchID)
}

func TestEmitter_PublishErrorIsSwallowed(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker down")}
	emitter := NewEmitter(publisher, silentLogger())

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), &CatalogEvent{Type: TypeReviewApproved})
	})
	assert.Len(t, publisher.published, 1)
}

func TestEmitter_NilPublisher(t *testing.T) {
	emitter := NewEmitter(nil, silentLogger())
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), &CatalogEvent{Type: TypeReviewRejected})
	})
}

func TestCatalogEvent_Key(t *testing.T) {
	assert.Equal(t, "v1", (&CatalogEvent{VariantID: "v1", ReviewEntryID: "r1", Source: "s"}).Key())
	assert.Equal(t, "r1", (&CatalogEvent{ReviewEntryID: "r1", Source: "s"}).Key())
	assert.Equal(t, "s", (&CatalogEvent{Source: "s"}).Key())
}
