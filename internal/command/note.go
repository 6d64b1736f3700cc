package command

import (
	"regexp"
	"strings"
	"time"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/store"
)

var noteTrigger = regexp.MustCompile(`(?i)start taking notes|add (a )?note|write down`)

func (p *Processor) handleNote(text string) (*Result, error) {
	noteText := strings.TrimSpace(noteTrigger.ReplaceAllString(text, ""))
	if noteText == "" {
		return nil, &NotUnderstoodError{What: "the note content"}
	}

	widget, ok := p.store.FindByType(models.WidgetTypeNote)
	if !ok {
		widget = p.store.Add(models.WidgetTypeNote, nil)
	}

	note := models.Note{
		ID:        models.NewRecordID(),
		Text:      noteText,
		CreatedAt: time.Now().UTC(),
	}

	updated := append(append([]models.Note{}, widget.Data.Notes...), note)
	w, err := p.store.UpdateWidget(widget.ID, store.Update{
		Data:       &models.WidgetData{Notes: updated},
		DataPolicy: store.MergeShallow,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Handler:  "note",
		WidgetID: w.ID,
		Detail:   "Note added successfully",
	}, nil
}
