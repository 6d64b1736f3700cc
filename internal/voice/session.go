// Package voice implements the capture -> transcribe -> confirm pipeline
// that gates voice commands before they reach the command processor.
package voice

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voiceboard/voiceboard/internal/command"
	"github.com/voiceboard/voiceboard/internal/logger"
)

// State is a voice session's position in the capture pipeline.
type State string

const (
	StateIdle                 State = "idle"
	StateRecording            State = "recording"
	StateProcessing           State = "processing"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateCommitting           State = "committing"
)

var (
	// ErrInvalidTransition is returned for an operation not valid in the
	// session's current state (e.g. starting while already recording).
	ErrInvalidTransition = errors.New("operation not valid in current session state")
	// ErrNoAudio is returned when recording stopped without any captured audio.
	ErrNoAudio = errors.New("no audio captured")
)

// Transcriber converts captured audio into text. Any speech-to-text
// engine can sit behind this.
type Transcriber interface {
	Transcribe(ctx context.Context, audio *bytes.Reader) (string, error)
}

// Runner executes a confirmed command. Satisfied by *command.Processor.
type Runner interface {
	Process(text string) (*command.Result, error)
}

// DefaultTranscribeTimeout bounds the asynchronous transcription call.
const DefaultTranscribeTimeout = 60 * time.Second

// Session is the single voice capture session for the dashboard. Only
// one recording may be active at a time; all transitions are guarded.
type Session struct {
	transcriber Transcriber
	runner      Runner
	log         *zap.Logger
	timeout     time.Duration

	mu         sync.Mutex
	state      State
	audio      bytes.Buffer
	transcript string
	lastErr    string
}

// NewSession creates an idle voice session.
func NewSession(transcriber Transcriber, runner Runner, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		transcriber: transcriber,
		runner:      runner,
		log:         log,
		timeout:     DefaultTranscribeTimeout,
		state:       StateIdle,
	}
}

// Status reports the current state, the pending transcript (only set
// while awaiting confirmation) and the last reported error.
func (s *Session) Status() (State, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.transcript, s.lastErr
}

// Start begins a recording. Only valid from Idle.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrInvalidTransition
	}
	s.state = StateRecording
	s.audio.Reset()
	s.transcript = ""
	s.lastErr = ""
	s.log.Info("voice_recording_started")
	return nil
}

// Append adds captured audio bytes to the in-flight recording.
func (s *Session) Append(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return ErrInvalidTransition
	}
	s.audio.Write(chunk)
	return nil
}

// Stop finalizes the recording and launches transcription
// asynchronously. The session moves to Processing immediately and to
// AwaitingConfirmation (or back to Idle on failure) when the transcript
// arrives.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.audio.Len() == 0 {
		s.state = StateIdle
		s.lastErr = ErrNoAudio.Error()
		s.mu.Unlock()
		return ErrNoAudio
	}

	captured := make([]byte, s.audio.Len())
	copy(captured, s.audio.Bytes())
	s.audio.Reset()
	s.state = StateProcessing
	s.mu.Unlock()

	s.log.Info("voice_recording_stopped", zap.Int("audio_bytes", len(captured)))

	go s.transcribe(captured)
	return nil
}

// transcribe runs the transcription capability and records the outcome.
func (s *Session) transcribe(audio []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	text, err := s.transcriber.Transcribe(ctx, bytes.NewReader(audio))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateProcessing {
		// Session was reset while transcription was in flight; drop the
		// dangling result.
		return
	}
	if err != nil {
		s.log.Warn("transcription_failed", zap.Error(err))
		s.state = StateIdle
		s.lastErr = "failed to process voice command, please try again"
		return
	}

	s.transcript = strings.TrimSpace(strings.ToLower(text))
	if s.transcript == "" {
		s.state = StateIdle
		s.lastErr = "transcription produced no text"
		return
	}
	s.state = StateAwaitingConfirmation
	s.log.Info("transcript_ready",
		zap.Int("length", len(s.transcript)),
		zap.String("preview", logger.SanitizeTranscript(s.transcript)),
	)
}

// Confirm commits the pending transcript to the command processor. The
// session returns to Idle whether the command succeeds or fails.
func (s *Session) Confirm() (*command.Result, error) {
	s.mu.Lock()
	if s.state != StateAwaitingConfirmation {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	text := s.transcript
	s.state = StateCommitting
	s.mu.Unlock()

	res, err := s.runner.Process(text)

	s.mu.Lock()
	s.state = StateIdle
	s.transcript = ""
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
	s.mu.Unlock()
	return res, err
}

// Reject discards the pending transcript without running it.
func (s *Session) Reject() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingConfirmation {
		return ErrInvalidTransition
	}
	s.state = StateIdle
	s.transcript = ""
	s.lastErr = ""
	s.log.Info("transcript_rejected")
	return nil
}

// Reset forces the session back to Idle from any state, abandoning any
// in-flight transcription result.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.audio.Reset()
	s.transcript = ""
	s.lastErr = ""
}
