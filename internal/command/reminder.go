package command

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/nlparse"
	"github.com/voiceboard/voiceboard/internal/store"
)

// reminderPattern captures the reminder body (lazily, up to the first
// for/on) and the date fragment: "set a reminder to call mom for
// December 25".
var reminderPattern = regexp.MustCompile(`(?i)(?:set|add)(?:\s+a)?\s+reminder(?:\s+to)?\s*(?:,)?\s*(.+?)\s+(?:for|on)\s+(.+)`)

func (p *Processor) handleReminder(text string) (*Result, error) {
	m := reminderPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, &NotUnderstoodError{
			What: "the reminder format",
			Hint: "say: set reminder [task] on [date]",
		}
	}

	reminderText := strings.TrimSpace(m[1])
	dateText := strings.TrimSpace(m[2])
	if reminderText == "" || dateText == "" {
		return nil, &NotUnderstoodError{What: "the reminder text or date"}
	}

	date, err := nlparse.ParseDate(dateText)
	if err != nil {
		return nil, err
	}

	widget, ok := p.store.FindByType(models.WidgetTypeReminder)
	if !ok {
		widget = p.store.Add(models.WidgetTypeReminder, nil)
	}

	reminder := models.Reminder{
		ID:   models.NewRecordID(),
		Text: reminderText,
		Date: date,
	}

	updated := append(append([]models.Reminder{}, widget.Data.Reminders...), reminder)
	w, err := p.store.UpdateWidget(widget.ID, store.Update{
		Data:       &models.WidgetData{Reminders: updated},
		DataPolicy: store.MergeShallow,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Handler:  "reminder",
		WidgetID: w.ID,
		Detail:   fmt.Sprintf("Reminder %q set for %s", reminderText, date.Format("January 2")),
	}, nil
}
