package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speaker-negotiator/internal/model"
	"speaker-negotiator/pkg/events"
)

type fakeRecordRepo struct {
	created []*model.NegotiationRecord
	err     error
}

func (f *fakeRecordRepo) Create(record *model.NegotiationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, record)
	return nil
}

func (f *fakeRecordRepo) FindWithPagination(offset, limit int, rule string) ([]model.NegotiationRecord, int64, error) {
	return nil, 0, nil
}

func (f *fakeRecordRepo) FindBySession(sessionID string) ([]model.NegotiationRecord, error) {
	return nil, nil
}

type fakeIndexer struct {
	docs []model.TurnDocument
	err  error
}

func (f *fakeIndexer) IndexTurn(ctx context.Context, doc model.TurnDocument) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

func sampleEvent() events.NegotiationEvent {
	offer := 120
	return events.NegotiationEvent{
		ID:        "evt-1",
		SessionID: "sess-1",
		Message:   "would you take 120?",
		Response:  "I can meet you at $130. It's a great deal for this speaker!",
		Rule:      "neutral_counter",
		Tier:      "neutral",
		Outcome:   "counter",
		Offer:     &offer,
		Price:     130,
		At:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestProcessor_PersistsAndIndexes(t *testing.T) {
	repo, idx := &fakeRecordRepo{}, &fakeIndexer{}
	p := NewProcessor(repo, idx)

	require.NoError(t, p.Process(context.Background(), sampleEvent()))

	require.Len(t, repo.created, 1)
	rec := repo.created[0]
	assert.Equal(t, "evt-1", rec.EventID)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.Equal(t, 120, *rec.Offer)
	assert.Equal(t, 130, rec.Price)

	require.Len(t, idx.docs, 1)
	assert.Equal(t, "evt-1", idx.docs[0].EventID)
	assert.Equal(t, "neutral_counter", idx.docs[0].Rule)
}

func TestProcessor_StopsWhenRecordFails(t *testing.T) {
	repo, idx := &fakeRecordRepo{err: errors.New("db down")}, &fakeIndexer{}
	p := NewProcessor(repo, idx)

	err := p.Process(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "db down")
	assert.Empty(t, idx.docs)
}

func TestProcessor_ReturnsIndexError(t *testing.T) {
	repo, idx := &fakeRecordRepo{}, &fakeIndexer{err: errors.New("es down")}
	p := NewProcessor(repo, idx)

	err := p.Process(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "es down")
	assert.Len(t, repo.created, 1)
}
