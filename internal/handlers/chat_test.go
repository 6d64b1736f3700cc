package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/queue"
	"github.com/voiceboard/voiceboard/internal/services/ai"
)

type stubProvider struct {
	response string
	err      error
	messages []ai.ChatMessage
}

func (s *stubProvider) Complete(_ context.Context, messages []ai.ChatMessage) (string, error) {
	s.messages = messages
	return s.response, s.err
}

type stubHistory struct {
	exchanges []models.ChatExchange
	err       error
	cleared   bool
}

func (s *stubHistory) ListRecent(context.Context) ([]models.ChatExchange, error) {
	return s.exchanges, s.err
}

func (s *stubHistory) Clear(context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = true
	s.exchanges = nil
	return nil
}

type stubQueue struct {
	enqueued []*queue.Job
	err      error
}

func (s *stubQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, job)
	return nil
}

func (s *stubQueue) Dequeue(context.Context) (*queue.Message, error) { return nil, nil }
func (s *stubQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}
func (s *stubQueue) Close() error                      { return nil }
func (s *stubQueue) HealthCheck(context.Context) error { return nil }

func newChatRouter(provider ai.CompletionProvider, history HistoryStore, q queue.JobQueue) *mux.Router {
	r := mux.NewRouter()
	h := NewChatHandler(provider, history, q, zap.NewNop())
	h.RegisterRoutes(r)
	return r
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{response: "you spent 40 on groceries"}
	q := &stubQueue{}
	history := &stubHistory{exchanges: []models.ChatExchange{
		{Message: "hi", Response: "hello"},
	}}
	r := newChatRouter(provider, history, q)

	body := bytes.NewBufferString(`{"message":"what did I spend on groceries?"}`)
	req := httptest.NewRequest("POST", "/chat/messages", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var res ChatMessageResponse
	decodeData(t, rec, &res)
	if res.Response != "you spent 40 on groceries" {
		t.Errorf("response = %q", res.Response)
	}

	// History context precedes the new message.
	if len(provider.messages) != 3 {
		t.Fatalf("provider got %d messages, want 3", len(provider.messages))
	}
	if provider.messages[0].Role != "user" || provider.messages[0].Content != "hi" {
		t.Errorf("first message = %+v", provider.messages[0])
	}
	last := provider.messages[len(provider.messages)-1]
	if last.Role != "user" || last.Content != "what did I spend on groceries?" {
		t.Errorf("last message = %+v", last)
	}

	// The exchange was enqueued for async persistence.
	if len(q.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(q.enqueued))
	}
	job := q.enqueued[0]
	if job.Type != queue.JobTypeHistoryAppend {
		t.Errorf("job type = %q", job.Type)
	}
	if job.Response != "you spent 40 on groceries" {
		t.Errorf("job response = %q", job.Response)
	}
}

func TestSendMessageQueueFailureDoesNotBlockReply(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{response: "sure"}
	q := &stubQueue{err: errors.New("broker unavailable")}
	r := newChatRouter(provider, &stubHistory{}, q)

	body := bytes.NewBufferString(`{"message":"hello"}`)
	req := httptest.NewRequest("POST", "/chat/messages", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite queue failure", rec.Code)
	}
}

func TestSendMessageQuotaExceeded(t *testing.T) {
	t.Parallel()

	quotaErr := &ai.APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        "insufficient_quota",
		Message:     "You exceeded your current quota",
		IsPermanent: true,
	}
	provider := &stubProvider{err: quotaErr}
	r := newChatRouter(provider, &stubHistory{}, &stubQueue{})

	body := bytes.NewBufferString(`{"message":"hello"}`)
	req := httptest.NewRequest("POST", "/chat/messages", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if quota, _ := payload["is_quota_error"].(bool); !quota {
		t.Error("is_quota_error should be true")
	}
}

func TestSendMessageRateLimited(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{err: &ai.APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    "Rate limit reached",
	}}
	r := newChatRouter(provider, &stubHistory{}, &stubQueue{})

	body := bytes.NewBufferString(`{"message":"hello"}`)
	req := httptest.NewRequest("POST", "/chat/messages", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestSendMessageProviderFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{err: errors.New("connection reset")}
	r := newChatRouter(provider, &stubHistory{}, &stubQueue{})

	body := bytes.NewBufferString(`{"message":"hello"}`)
	req := httptest.NewRequest("POST", "/chat/messages", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestSendMessageNoProvider(t *testing.T) {
	t.Parallel()

	r := newChatRouter(nil, &stubHistory{}, &stubQueue{})

	body := bytes.NewBufferString(`{"message":"hello"}`)
	req := httptest.NewRequest("POST", "/chat/messages", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGetHistory(t *testing.T) {
	t.Parallel()

	history := &stubHistory{exchanges: []models.ChatExchange{
		{Message: "first", Response: "one"},
		{Message: "second", Response: "two"},
	}}
	r := newChatRouter(&stubProvider{}, history, &stubQueue{})

	req := httptest.NewRequest("GET", "/chat/history", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var exchanges []models.ChatExchange
	decodeData(t, rec, &exchanges)
	if len(exchanges) != 2 {
		t.Errorf("got %d exchanges, want 2", len(exchanges))
	}
	if exchanges[0].Message != "first" {
		t.Errorf("exchanges out of order: %+v", exchanges)
	}
}

func TestClearHistory(t *testing.T) {
	t.Parallel()

	history := &stubHistory{exchanges: []models.ChatExchange{
		{Message: "hi", Response: "hello"},
	}}
	r := newChatRouter(&stubProvider{}, history, &stubQueue{})

	req := httptest.NewRequest("DELETE", "/chat/history", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !history.cleared {
		t.Error("history was not cleared")
	}

	req = httptest.NewRequest("GET", "/chat/history", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var exchanges []models.ChatExchange
	decodeData(t, rec, &exchanges)
	if len(exchanges) != 0 {
		t.Errorf("got %d exchanges after clear, want 0", len(exchanges))
	}
}
