package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/voiceboard/voiceboard/internal/command"
	"github.com/voiceboard/voiceboard/internal/voice"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, *bytes.Reader) (string, error) {
	return f.text, f.err
}

type fakeRunner struct {
	result *command.Result
	err    error
}

func (f *fakeRunner) Process(string) (*command.Result, error) {
	return f.result, f.err
}

func newVoiceRouter(tr voice.Transcriber, run voice.Runner) *mux.Router {
	r := mux.NewRouter()
	h := NewVoiceHandler(voice.NewSession(tr, run, nil))
	h.RegisterRoutes(r)
	return r
}

func doVoice(t *testing.T, r *mux.Router, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// pollVoiceState polls GET /voice/session until the session reaches the
// wanted state, mirroring how the frontend tracks transcription.
func pollVoiceState(t *testing.T, r *mux.Router, want voice.State) VoiceStatusResponse {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var last VoiceStatusResponse
	for time.Now().Before(deadline) {
		rec := doVoice(t, r, "GET", "/voice/session", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status poll returned %d", rec.Code)
		}
		last = VoiceStatusResponse{}
		decodeData(t, rec, &last)
		if last.State == want {
			return last
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session state = %q (err %q), want %q", last.State, last.Error, want)
	return last
}

func TestVoiceSessionLifecycle(t *testing.T) {
	t.Parallel()

	tr := &fakeTranscriber{text: "Set an alarm for 7 AM"}
	run := &fakeRunner{result: &command.Result{Handler: "alarm", Detail: "Alarm set for 07:00"}}
	r := newVoiceRouter(tr, run)

	rec := doVoice(t, r, "POST", "/voice/session/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	var status VoiceStatusResponse
	decodeData(t, rec, &status)
	if status.State != voice.StateRecording {
		t.Errorf("state after start = %q", status.State)
	}

	rec = doVoice(t, r, "POST", "/voice/session/audio", []byte("chunk-one"))
	if rec.Code != http.StatusOK {
		t.Fatalf("audio status = %d: %s", rec.Code, rec.Body.String())
	}
	var received map[string]int
	decodeData(t, rec, &received)
	if received["received"] != len("chunk-one") {
		t.Errorf("received = %d", received["received"])
	}

	rec = doVoice(t, r, "POST", "/voice/session/stop", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("stop status = %d: %s", rec.Code, rec.Body.String())
	}

	status = pollVoiceState(t, r, voice.StateAwaitingConfirmation)
	if status.Transcript != "set an alarm for 7 am" {
		t.Errorf("transcript = %q", status.Transcript)
	}

	rec = doVoice(t, r, "POST", "/voice/session/confirm", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", rec.Code, rec.Body.String())
	}
	var result command.Result
	decodeData(t, rec, &result)
	if result.Handler != "alarm" {
		t.Errorf("handler = %q", result.Handler)
	}

	pollVoiceState(t, r, voice.StateIdle)
}

func TestVoiceStartConflict(t *testing.T) {
	t.Parallel()

	r := newVoiceRouter(&fakeTranscriber{}, &fakeRunner{})

	if rec := doVoice(t, r, "POST", "/voice/session/start", nil); rec.Code != http.StatusOK {
		t.Fatalf("first start = %d", rec.Code)
	}
	if rec := doVoice(t, r, "POST", "/voice/session/start", nil); rec.Code != http.StatusConflict {
		t.Errorf("second start = %d, want 409", rec.Code)
	}
}

func TestVoiceAudioValidation(t *testing.T) {
	t.Parallel()

	r := newVoiceRouter(&fakeTranscriber{}, &fakeRunner{})

	// No recording in progress.
	if rec := doVoice(t, r, "POST", "/voice/session/audio", []byte("x")); rec.Code != http.StatusConflict {
		t.Errorf("audio while idle = %d, want 409", rec.Code)
	}

	if rec := doVoice(t, r, "POST", "/voice/session/start", nil); rec.Code != http.StatusOK {
		t.Fatalf("start = %d", rec.Code)
	}

	if rec := doVoice(t, r, "POST", "/voice/session/audio", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty chunk = %d, want 400", rec.Code)
	}

	oversize := make([]byte, MaxAudioChunkSize+1)
	if rec := doVoice(t, r, "POST", "/voice/session/audio", oversize); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversize chunk = %d, want 413", rec.Code)
	}
}

func TestVoiceStopWithoutAudio(t *testing.T) {
	t.Parallel()

	r := newVoiceRouter(&fakeTranscriber{}, &fakeRunner{})

	if rec := doVoice(t, r, "POST", "/voice/session/stop", nil); rec.Code != http.StatusConflict {
		t.Errorf("stop while idle = %d, want 409", rec.Code)
	}

	if rec := doVoice(t, r, "POST", "/voice/session/start", nil); rec.Code != http.StatusOK {
		t.Fatalf("start = %d", rec.Code)
	}
	if rec := doVoice(t, r, "POST", "/voice/session/stop", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("stop without audio = %d, want 400", rec.Code)
	}
}

func TestVoiceReject(t *testing.T) {
	t.Parallel()

	r := newVoiceRouter(&fakeTranscriber{text: "add a note buy milk"}, &fakeRunner{})

	if rec := doVoice(t, r, "POST", "/voice/session/reject", nil); rec.Code != http.StatusConflict {
		t.Errorf("reject while idle = %d, want 409", rec.Code)
	}

	doVoice(t, r, "POST", "/voice/session/start", nil)
	doVoice(t, r, "POST", "/voice/session/audio", []byte("audio"))
	doVoice(t, r, "POST", "/voice/session/stop", nil)
	pollVoiceState(t, r, voice.StateAwaitingConfirmation)

	rec := doVoice(t, r, "POST", "/voice/session/reject", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d", rec.Code)
	}
	var status VoiceStatusResponse
	decodeData(t, rec, &status)
	if status.State != voice.StateIdle || status.Transcript != "" {
		t.Errorf("after reject: state=%q transcript=%q", status.State, status.Transcript)
	}
}

func TestVoiceConfirmNotRecognized(t *testing.T) {
	t.Parallel()

	r := newVoiceRouter(
		&fakeTranscriber{text: "play some music"},
		&fakeRunner{err: command.ErrNotRecognized},
	)

	doVoice(t, r, "POST", "/voice/session/start", nil)
	doVoice(t, r, "POST", "/voice/session/audio", []byte("audio"))
	doVoice(t, r, "POST", "/voice/session/stop", nil)
	pollVoiceState(t, r, voice.StateAwaitingConfirmation)

	rec := doVoice(t, r, "POST", "/voice/session/confirm", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("confirm status = %d, want 422", rec.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if success, _ := payload["success"].(bool); success {
		t.Error("success should be false")
	}

	pollVoiceState(t, r, voice.StateIdle)
}
