package models

import (
	"fmt"
	"sync"
	"time"
)

// WidgetType identifies the kind of widget
type WidgetType string

const (
	WidgetTypeAlarm    WidgetType = "alarm"
	WidgetTypeTodo     WidgetType = "todo"
	WidgetTypeReminder WidgetType = "reminder"
	WidgetTypeNote     WidgetType = "note"
	WidgetTypeExpense  WidgetType = "expense"
)

// WidgetTypes lists all valid widget types
var WidgetTypes = []WidgetType{
	WidgetTypeAlarm,
	WidgetTypeTodo,
	WidgetTypeReminder,
	WidgetTypeNote,
	WidgetTypeExpense,
}

// Valid reports whether t is a known widget type.
func (t WidgetType) Valid() bool {
	for _, known := range WidgetTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Position is a widget's location on the dashboard canvas
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a widget's dimensions in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Widget represents a dashboard widget instance
type Widget struct {
	ID       string     `json:"id"`
	Type     WidgetType `json:"type"`
	Position Position   `json:"position"`
	Size     Size       `json:"size"`
	Data     WidgetData `json:"data"`
}

// WidgetData holds the type-specific payload for a widget.
// Only the collections relevant to the widget's type are populated.
type WidgetData struct {
	Alarms     []Alarm           `json:"alarms,omitempty"`
	Tasks      []Task            `json:"tasks,omitempty"`
	Reminders  []Reminder        `json:"reminders,omitempty"`
	Notes      []Note            `json:"notes,omitempty"`
	Categories []ExpenseCategory `json:"categories,omitempty"`
	Expenses   []Expense         `json:"expenses,omitempty"`
}

// Alarm is a single alarm entry. Time is always a zero-padded 24-hour
// "HH:MM" string; 12-hour conversion happens once at creation.
type Alarm struct {
	ID             string   `json:"id"`
	Time           string   `json:"time"`
	Enabled        bool     `json:"enabled"`
	Label          string   `json:"label,omitempty"`
	Repeat         []string `json:"repeat,omitempty"` // weekday codes, e.g. "mon"
	Sound          string   `json:"sound,omitempty"`
	Vibrate        bool     `json:"vibrate,omitempty"`
	SnoozeEnabled  bool     `json:"snooze_enabled,omitempty"`
	SnoozeInterval int      `json:"snooze_interval,omitempty"`
}

// Task is a single todo entry
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Reminder is a single reminder entry with a due instant
type Reminder struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
}

// Note is a single note entry
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpenseCategory groups expenses. A category referenced by any expense
// cannot be deleted; referential integrity is enforced at the handler
// layer, not here.
type ExpenseCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Expense is a single expense entry. CategoryID references a category in
// the same widget's Categories slice.
type Expense struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Date        time.Time `json:"date"`
}

var (
	recordIDMu sync.Mutex
	lastRecord int64
)

// NewRecordID returns a time-based unique ID for records inside widget
// data (alarms, tasks, etc.), matching the millisecond-timestamp scheme
// the dashboard client uses. Two records created within the same
// millisecond (a new category and its first expense, for example) get
// consecutive values instead of colliding.
func NewRecordID() string {
	recordIDMu.Lock()
	defer recordIDMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= lastRecord {
		now = lastRecord + 1
	}
	lastRecord = now
	return fmt.Sprintf("%d", now)
}

// NewWidgetID returns a widget ID of the form "<type>-<millis>".
func NewWidgetID(t WidgetType) string {
	return fmt.Sprintf("%s-%d", t, time.Now().UnixMilli())
}
