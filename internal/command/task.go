package command

import (
	"regexp"
	"strings"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/store"
)

// taskTrigger strips the trigger phrasing, leaving the task body.
var taskTrigger = regexp.MustCompile(`(?i)add (a )?task|todo|to( the)? list`)

func (p *Processor) handleTask(text string) (*Result, error) {
	taskText := strings.TrimSpace(taskTrigger.ReplaceAllString(text, ""))
	if taskText == "" {
		return nil, &NotUnderstoodError{What: "the task description"}
	}

	widget, ok := p.store.FindByType(models.WidgetTypeTodo)
	if !ok {
		widget = p.store.Add(models.WidgetTypeTodo, nil)
	}

	task := models.Task{
		ID:   models.NewRecordID(),
		Text: taskText,
	}

	updated := append(append([]models.Task{}, widget.Data.Tasks...), task)
	w, err := p.store.UpdateWidget(widget.ID, store.Update{
		Data:       &models.WidgetData{Tasks: updated},
		DataPolicy: store.MergeShallow,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Handler:  "task",
		WidgetID: w.ID,
		Detail:   "Task added successfully",
	}, nil
}
