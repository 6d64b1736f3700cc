package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voiceboard/voiceboard/internal/command"
	"github.com/voiceboard/voiceboard/internal/validation"
)

// CommandHandler interprets natural-language dashboard commands
type CommandHandler struct {
	processor *command.Processor
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(p *command.Processor) *CommandHandler {
	return &CommandHandler{processor: p}
}

// RegisterRoutes registers command routes on the given router
func (h *CommandHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/commands", h.RunCommand).Methods("POST")
}

// RunCommandRequest represents a natural-language command request
type RunCommandRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

// RunCommand interprets the command text and applies it to the dashboard
func (h *CommandHandler) RunCommand(w http.ResponseWriter, r *http.Request) {
	var req RunCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	text := validation.SanitizeText(req.Text)
	result, err := h.processor.Process(text)
	if err != nil {
		if errors.Is(err, command.ErrNotRecognized) {
			respondJSONError(w, http.StatusUnprocessableEntity, "Not Recognized", "Could not understand the command")
			return
		}
		if command.IsValidationError(err) {
			respondJSONError(w, http.StatusUnprocessableEntity, "Not Recognized", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to run command")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
