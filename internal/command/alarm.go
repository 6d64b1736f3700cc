package command

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/nlparse"
	"github.com/voiceboard/voiceboard/internal/store"
)

// handleAlarm processes alarm commands ("set an alarm for 7:30 am",
// "wake me up at 6"). It triggers on the presence of "alarm", "wake" or
// "at" anywhere in the text. Returns (nil, nil) when declining so the
// keyword routes run, and (nil, err) when the text looked alarm-like but
// the time could not be parsed.
func (p *Processor) handleAlarm(text string) (*Result, error) {
	if !strings.Contains(text, "alarm") && !strings.Contains(text, "wake") &&
		!strings.Contains(text, "at") {
		return nil, nil
	}

	ct, err := nlparse.ParseClockTime(text)
	if err != nil {
		p.log.Debug("alarm_time_parse_declined", zap.Error(err))
		return nil, err
	}

	widget, ok := p.store.FindByType(models.WidgetTypeAlarm)
	if !ok {
		widget = p.store.Add(models.WidgetTypeAlarm, nil)
	}

	alarm := models.Alarm{
		ID:      models.NewRecordID(),
		Time:    ct.HHMM(),
		Enabled: true,
	}

	// Full replacement of the alarms field; sibling data fields are
	// preserved via the shallow merge.
	updated := append(append([]models.Alarm{}, widget.Data.Alarms...), alarm)
	w, err := p.store.UpdateWidget(widget.ID, store.Update{
		Data:       &models.WidgetData{Alarms: updated},
		DataPolicy: store.MergeShallow,
	})
	if err != nil {
		return nil, err
	}

	period := "AM"
	if ct.IsPM {
		period = "PM"
	}
	return &Result{
		Handler:  "alarm",
		WidgetID: w.ID,
		Detail:   fmt.Sprintf("Alarm set for %d:%02d %s", ct.Hour, ct.Minute, period),
	}, nil
}
