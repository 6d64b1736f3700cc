package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/queue"
)

type mockHistoryStore struct {
	appended []*models.ChatExchange
	err      error
}

func (m *mockHistoryStore) Append(_ context.Context, e *models.ChatExchange) error {
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, e)
	return nil
}

func TestProcessJobWritesExchange(t *testing.T) {
	t.Parallel()

	store := &mockHistoryStore{}
	w := NewHistoryWriter(store, nil, zap.NewNop())

	exchangeID := uuid.New()
	job := queue.NewHistoryAppendJob(exchangeID, "what did I spend", "you spent 40 on groceries")

	if err := w.ProcessJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if len(store.appended) != 1 {
		t.Fatalf("appended %d exchanges, want 1", len(store.appended))
	}
	got := store.appended[0]
	if got.ID != exchangeID {
		t.Errorf("ID = %v, want %v", got.ID, exchangeID)
	}
	if got.Message != "what did I spend" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestProcessJobRejectsWrongType(t *testing.T) {
	t.Parallel()

	w := NewHistoryWriter(&mockHistoryStore{}, nil, zap.NewNop())
	job := queue.NewHistoryAppendJob(uuid.New(), "m", "r")
	job.Type = "unknown_type"

	if err := w.ProcessJob(context.Background(), job); err == nil {
		t.Error("ProcessJob() should fail for unknown job type")
	}
}

func TestProcessJobRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	w := NewHistoryWriter(&mockHistoryStore{}, nil, zap.NewNop())
	job := queue.NewHistoryAppendJob(uuid.New(), "", "")

	if err := w.ProcessJob(context.Background(), job); err == nil {
		t.Error("ProcessJob() should fail for empty payload")
	}
}

func TestProcessJobPropagatesStoreError(t *testing.T) {
	t.Parallel()

	store := &mockHistoryStore{err: errors.New("connection refused")}
	w := NewHistoryWriter(store, nil, zap.NewNop())
	job := queue.NewHistoryAppendJob(uuid.New(), "m", "r")

	if err := w.ProcessJob(context.Background(), job); err == nil {
		t.Error("ProcessJob() should propagate store errors")
	}
}
