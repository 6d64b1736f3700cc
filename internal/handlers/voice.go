package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voiceboard/voiceboard/internal/command"
	"github.com/voiceboard/voiceboard/internal/voice"
)

// MaxAudioChunkSize caps a single uploaded audio chunk at 1 MiB.
const MaxAudioChunkSize = 1 << 20

// VoiceHandler drives the voice capture session over HTTP
type VoiceHandler struct {
	session *voice.Session
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(s *voice.Session) *VoiceHandler {
	return &VoiceHandler{session: s}
}

// RegisterRoutes registers voice session routes on the given router
func (h *VoiceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/voice/session", h.GetStatus).Methods("GET")
	r.HandleFunc("/voice/session/start", h.Start).Methods("POST")
	r.HandleFunc("/voice/session/audio", h.AppendAudio).Methods("POST")
	r.HandleFunc("/voice/session/stop", h.Stop).Methods("POST")
	r.HandleFunc("/voice/session/confirm", h.Confirm).Methods("POST")
	r.HandleFunc("/voice/session/reject", h.Reject).Methods("POST")
}

// VoiceStatusResponse describes the session state
type VoiceStatusResponse struct {
	State      voice.State `json:"state"`
	Transcript string      `json:"transcript,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func (h *VoiceHandler) status() VoiceStatusResponse {
	state, transcript, lastErr := h.session.Status()
	return VoiceStatusResponse{State: state, Transcript: transcript, Error: lastErr}
}

// GetStatus reports the current session state and any pending transcript
func (h *VoiceHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status())
}

// Start begins a new recording
func (h *VoiceHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Start(); err != nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "A voice session is already in progress")
		return
	}
	respondJSON(w, http.StatusOK, h.status())
}

// AppendAudio adds a chunk of captured audio to the recording
func (h *VoiceHandler) AppendAudio(w http.ResponseWriter, r *http.Request) {
	chunk, err := io.ReadAll(io.LimitReader(r.Body, MaxAudioChunkSize+1))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Failed to read audio chunk")
		return
	}
	if len(chunk) == 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Empty audio chunk")
		return
	}
	if len(chunk) > MaxAudioChunkSize {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Audio chunk exceeds size limit")
		return
	}

	if err := h.session.Append(chunk); err != nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "No recording in progress")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"received": len(chunk)})
}

// Stop finalizes the recording and starts transcription. The client
// polls GetStatus for the transcript.
func (h *VoiceHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Stop(); err != nil {
		if errors.Is(err, voice.ErrNoAudio) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "No audio was captured")
			return
		}
		respondJSONError(w, http.StatusConflict, "Conflict", "No recording in progress")
		return
	}
	respondJSON(w, http.StatusAccepted, h.status())
}

// Confirm executes the transcribed command
func (h *VoiceHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.Confirm()
	if err != nil {
		if errors.Is(err, voice.ErrInvalidTransition) {
			respondJSONError(w, http.StatusConflict, "Conflict", "No transcript awaiting confirmation")
			return
		}
		if errors.Is(err, command.ErrNotRecognized) || command.IsValidationError(err) {
			respondJSONError(w, http.StatusUnprocessableEntity, "Not Recognized", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to run command")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Reject discards the pending transcript
func (h *VoiceHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reject(); err != nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "No transcript awaiting confirmation")
		return
	}
	respondJSON(w, http.StatusOK, h.status())
}
