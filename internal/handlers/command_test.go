package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/voiceboard/voiceboard/internal/command"
	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/store"
)

func newCommandRouter(s *store.Store) *mux.Router {
	r := mux.NewRouter()
	h := NewCommandHandler(command.NewProcessor(s, nil))
	h.RegisterRoutes(r)
	return r
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	s := store.New()
	r := newCommandRouter(s)

	body := bytes.NewBufferString(`{"text":"set an alarm for 7:30 am"}`)
	req := httptest.NewRequest("POST", "/commands", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var res command.Result
	decodeData(t, rec, &res)
	if res.Handler != "alarm" {
		t.Errorf("handler = %q, want alarm", res.Handler)
	}
	if !s.HasType(models.WidgetTypeAlarm) {
		t.Error("alarm widget should have been created")
	}
}

func TestRunCommandNotRecognized(t *testing.T) {
	t.Parallel()

	r := newCommandRouter(store.New())

	body := bytes.NewBufferString(`{"text":"play some music"}`)
	req := httptest.NewRequest("POST", "/commands", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestRunCommandInvalidTime(t *testing.T) {
	t.Parallel()

	r := newCommandRouter(store.New())

	body := bytes.NewBufferString(`{"text":"set alarm for 99:99"}`)
	req := httptest.NewRequest("POST", "/commands", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestRunCommandEmptyBody(t *testing.T) {
	t.Parallel()

	r := newCommandRouter(store.New())

	body := bytes.NewBufferString(`{"text":""}`)
	req := httptest.NewRequest("POST", "/commands", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
