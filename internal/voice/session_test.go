package voice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/voiceboard/voiceboard/internal/command"
)

type stubTranscriber struct {
	text string
	err  error
	got  []byte
}

func (s *stubTranscriber) Transcribe(_ context.Context, audio *bytes.Reader) (string, error) {
	s.got, _ = io.ReadAll(audio)
	return s.text, s.err
}

type stubRunner struct {
	result *command.Result
	err    error
	text   string
}

func (s *stubRunner) Process(text string) (*command.Result, error) {
	s.text = text
	return s.result, s.err
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, _, _ := s.Status()
		if state == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	state, _, lastErr := s.Status()
	t.Fatalf("state = %q (err %q), want %q", state, lastErr, want)
}

func TestSessionHappyPath(t *testing.T) {
	t.Parallel()

	tr := &stubTranscriber{text: "  Set An Alarm For 7 AM  "}
	run := &stubRunner{result: &command.Result{Handler: "alarm"}}
	s := NewSession(tr, run, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Append([]byte("audio-part-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append([]byte("audio-part-2")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	waitForState(t, s, StateAwaitingConfirmation)
	_, transcript, _ := s.Status()
	if transcript != "set an alarm for 7 am" {
		t.Errorf("transcript = %q, want lowercased trimmed text", transcript)
	}
	if string(tr.got) != "audio-part-1audio-part-2" {
		t.Errorf("transcriber received %q", tr.got)
	}

	res, err := s.Confirm()
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if res.Handler != "alarm" {
		t.Errorf("result handler = %q", res.Handler)
	}
	if run.text != "set an alarm for 7 am" {
		t.Errorf("runner got %q", run.text)
	}
	waitForState(t, s, StateIdle)
}

func TestSessionInvalidTransitions(t *testing.T) {
	t.Parallel()

	s := NewSession(&stubTranscriber{}, &stubRunner{}, nil)

	if err := s.Append([]byte("x")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Append while idle = %v, want ErrInvalidTransition", err)
	}
	if err := s.Stop(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Stop while idle = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Confirm while idle = %v, want ErrInvalidTransition", err)
	}
	if err := s.Reject(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Reject while idle = %v, want ErrInvalidTransition", err)
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start = %v, want ErrInvalidTransition", err)
	}
}

func TestSessionStopWithoutAudio(t *testing.T) {
	t.Parallel()

	s := NewSession(&stubTranscriber{}, &stubRunner{}, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Stop() = %v, want ErrNoAudio", err)
	}
	waitForState(t, s, StateIdle)
}

func TestSessionTranscriptionFailure(t *testing.T) {
	t.Parallel()

	tr := &stubTranscriber{err: errors.New("upstream unavailable")}
	s := NewSession(tr, &stubRunner{}, nil)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("audio")); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}

	waitForState(t, s, StateIdle)
	_, _, lastErr := s.Status()
	if lastErr == "" {
		t.Error("lastErr should be set after a failed transcription")
	}

	// A new recording can start immediately.
	if err := s.Start(); err != nil {
		t.Errorf("Start after failure = %v", err)
	}
}

func TestSessionEmptyTranscript(t *testing.T) {
	t.Parallel()

	tr := &stubTranscriber{text: "   "}
	s := NewSession(tr, &stubRunner{}, nil)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("audio")); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}

	waitForState(t, s, StateIdle)
	_, _, lastErr := s.Status()
	if lastErr == "" {
		t.Error("lastErr should explain the empty transcript")
	}
}

func TestSessionReject(t *testing.T) {
	t.Parallel()

	tr := &stubTranscriber{text: "add a note buy milk"}
	run := &stubRunner{}
	s := NewSession(tr, run, nil)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("audio")); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	waitForState(t, s, StateAwaitingConfirmation)

	if err := s.Reject(); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	state, transcript, _ := s.Status()
	if state != StateIdle || transcript != "" {
		t.Errorf("after reject: state=%q transcript=%q", state, transcript)
	}
	if run.text != "" {
		t.Error("runner should not have been invoked")
	}
}

func TestSessionConfirmFailureReturnsToIdle(t *testing.T) {
	t.Parallel()

	tr := &stubTranscriber{text: "play some music"}
	run := &stubRunner{err: command.ErrNotRecognized}
	s := NewSession(tr, run, nil)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("audio")); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	waitForState(t, s, StateAwaitingConfirmation)

	if _, err := s.Confirm(); !errors.Is(err, command.ErrNotRecognized) {
		t.Errorf("Confirm() = %v, want ErrNotRecognized", err)
	}
	state, _, lastErr := s.Status()
	if state != StateIdle {
		t.Errorf("state = %q, want idle", state)
	}
	if lastErr == "" {
		t.Error("lastErr should record the command failure")
	}
}

func TestSessionResetDropsInFlightResult(t *testing.T) {
	t.Parallel()

	tr := &stubTranscriber{text: "anything"}
	s := NewSession(tr, &stubRunner{}, nil)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("audio")); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	s.Reset()

	// The transcription goroutine may still land; the session must stay
	// Idle with no transcript.
	time.Sleep(50 * time.Millisecond)
	state, transcript, _ := s.Status()
	if state != StateIdle || transcript != "" {
		t.Errorf("after reset: state=%q transcript=%q", state, transcript)
	}
}
