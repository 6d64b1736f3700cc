package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/voiceboard/voiceboard/internal/models"
)

const (
	// WidgetVerticalSpacing is the pixel spacing between grid rows
	WidgetVerticalSpacing = 170
	// WidgetHorizontalSpacing is the pixel spacing between grid columns
	WidgetHorizontalSpacing = 170
	// MaxWidgetsPerRow is the number of widgets per grid row for auto-placement
	MaxWidgetsPerRow = 2

	// DefaultWidgetWidth is the initial widget width in pixels
	DefaultWidgetWidth = 150
	// DefaultWidgetHeight is the initial widget height in pixels
	DefaultWidgetHeight = 150
)

// MergePolicy controls how Update treats the Data payload.
type MergePolicy string

const (
	// MergeReplace replaces the widget's Data wholesale with the update's Data.
	MergeReplace MergePolicy = "replace"
	// MergeShallow merges the update's Data field-by-field: only non-nil
	// collections in the update overwrite the corresponding collection.
	MergeShallow MergePolicy = "merge_shallow"
)

var (
	// ErrWidgetNotFound is returned when no widget with the given ID exists
	ErrWidgetNotFound = errors.New("widget not found")
	// ErrTypeExists is returned when restoring a widget whose type is already active
	ErrTypeExists = errors.New("an active widget of this type already exists")
)

// Update describes a partial widget mutation. Nil fields are left unchanged.
type Update struct {
	Position *models.Position
	Size     *models.Size
	Data     *models.WidgetData
	// DataPolicy applies when Data is set. Zero value means MergeReplace,
	// matching the original replace-on-update behavior.
	DataPolicy MergePolicy
}

// Store owns all widget records: the active set and the trash. All
// mutations replace slices wholesale so concurrent readers never observe
// a torn intermediate state.
type Store struct {
	mu      sync.RWMutex
	widgets []models.Widget
	trashed []models.Widget
}

// New creates an empty widget store.
func New() *Store {
	return &Store{}
}

// List returns a snapshot of the active widgets in creation order.
func (s *Store) List() []models.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Widget, len(s.widgets))
	copy(out, s.widgets)
	return out
}

// ListTrashed returns a snapshot of the trashed widgets.
func (s *Store) ListTrashed() []models.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Widget, len(s.trashed))
	copy(out, s.trashed)
	return out
}

// Get returns the active widget with the given ID.
func (s *Store) Get(id string) (models.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.widgets {
		if w.ID == id {
			return w, nil
		}
	}
	return models.Widget{}, ErrWidgetNotFound
}

// FindByType returns the first active widget of the given type.
func (s *Store) FindByType(t models.WidgetType) (models.Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.widgets {
		if w.Type == t {
			return w, true
		}
	}
	return models.Widget{}, false
}

// HasType reports whether an active widget of the given type exists.
func (s *Store) HasType(t models.WidgetType) bool {
	_, ok := s.FindByType(t)
	return ok
}

// HasTrashedType reports whether a trashed widget of the given type exists.
func (s *Store) HasTrashedType(t models.WidgetType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.trashed {
		if w.Type == t {
			return true
		}
	}
	return false
}

// Add creates a widget of the given type with its empty-collection
// default payload and appends it to the active set. If position is nil
// the widget is auto-placed on the row-major grid. The created record is
// returned so callers never need to re-read store state.
func (s *Store) Add(t models.WidgetType, position *models.Position) models.Widget {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := models.Position{}
	if position != nil {
		pos = *position
	} else {
		pos = gridPosition(len(s.widgets))
	}

	w := models.Widget{
		ID:       models.NewWidgetID(t),
		Type:     t,
		Position: pos,
		Size:     models.Size{Width: DefaultWidgetWidth, Height: DefaultWidgetHeight},
		Data:     defaultData(t),
	}

	next := make([]models.Widget, len(s.widgets), len(s.widgets)+1)
	copy(next, s.widgets)
	s.widgets = append(next, w)
	return w
}

// Remove moves an active widget to the trash.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, w := range s.widgets {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrWidgetNotFound
	}

	removed := s.widgets[idx]
	next := make([]models.Widget, 0, len(s.widgets)-1)
	next = append(next, s.widgets[:idx]...)
	next = append(next, s.widgets[idx+1:]...)
	s.widgets = next

	trash := make([]models.Widget, len(s.trashed), len(s.trashed)+1)
	copy(trash, s.trashed)
	s.trashed = append(trash, removed)
	return nil
}

// Restore moves a trashed widget back to the active set with a fresh
// grid position. Restoring is rejected while an active widget of the
// same type exists.
func (s *Store) Restore(id string) (models.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, w := range s.trashed {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Widget{}, ErrWidgetNotFound
	}

	candidate := s.trashed[idx]
	for _, w := range s.widgets {
		if w.Type == candidate.Type {
			return models.Widget{}, fmt.Errorf("restore %s: %w", candidate.ID, ErrTypeExists)
		}
	}

	candidate.Position = gridPosition(len(s.widgets))

	trash := make([]models.Widget, 0, len(s.trashed)-1)
	trash = append(trash, s.trashed[:idx]...)
	trash = append(trash, s.trashed[idx+1:]...)
	s.trashed = trash

	next := make([]models.Widget, len(s.widgets), len(s.widgets)+1)
	copy(next, s.widgets)
	s.widgets = append(next, candidate)
	return candidate, nil
}

// RestoreAll restores every trashed widget whose type has no active
// collision. Colliding widgets stay in the trash; partial restore is
// allowed. Returns the restored widgets.
func (s *Store) RestoreAll() []models.Widget {
	s.mu.Lock()
	defer s.mu.Unlock()

	activeTypes := make(map[models.WidgetType]bool, len(s.widgets))
	for _, w := range s.widgets {
		activeTypes[w.Type] = true
	}

	var restored []models.Widget
	var remaining []models.Widget
	next := make([]models.Widget, len(s.widgets))
	copy(next, s.widgets)

	for _, w := range s.trashed {
		if activeTypes[w.Type] {
			remaining = append(remaining, w)
			continue
		}
		w.Position = gridPosition(len(next))
		next = append(next, w)
		restored = append(restored, w)
		activeTypes[w.Type] = true
	}

	s.widgets = next
	s.trashed = remaining
	return restored
}

// ClearTrash permanently discards all trashed widgets. Idempotent.
func (s *Store) ClearTrash() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trashed = nil
}

// UpdateWidget applies a partial update to an active widget. Top-level
// fields merge shallowly; the Data payload follows upd.DataPolicy.
func (s *Store) UpdateWidget(id string, upd Update) (models.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, w := range s.widgets {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Widget{}, ErrWidgetNotFound
	}

	w := s.widgets[idx]
	if upd.Position != nil {
		w.Position = *upd.Position
	}
	if upd.Size != nil {
		w.Size = *upd.Size
	}
	if upd.Data != nil {
		switch upd.DataPolicy {
		case MergeShallow:
			w.Data = mergeData(w.Data, *upd.Data)
		default:
			w.Data = *upd.Data
		}
	}

	next := make([]models.Widget, len(s.widgets))
	copy(next, s.widgets)
	next[idx] = w
	s.widgets = next
	return w, nil
}

// mergeData overlays non-nil collections from upd onto base.
func mergeData(base, upd models.WidgetData) models.WidgetData {
	if upd.Alarms != nil {
		base.Alarms = upd.Alarms
	}
	if upd.Tasks != nil {
		base.Tasks = upd.Tasks
	}
	if upd.Reminders != nil {
		base.Reminders = upd.Reminders
	}
	if upd.Notes != nil {
		base.Notes = upd.Notes
	}
	if upd.Categories != nil {
		base.Categories = upd.Categories
	}
	if upd.Expenses != nil {
		base.Expenses = upd.Expenses
	}
	return base
}

// gridPosition computes the row-major auto-placement slot for index.
func gridPosition(index int) models.Position {
	row := index / MaxWidgetsPerRow
	col := index % MaxWidgetsPerRow
	return models.Position{
		X: col * WidgetHorizontalSpacing,
		Y: row * WidgetVerticalSpacing,
	}
}

// defaultData returns the empty-collection payload for each widget type.
func defaultData(t models.WidgetType) models.WidgetData {
	switch t {
	case models.WidgetTypeAlarm:
		return models.WidgetData{Alarms: []models.Alarm{}}
	case models.WidgetTypeTodo:
		return models.WidgetData{Tasks: []models.Task{}}
	case models.WidgetTypeReminder:
		return models.WidgetData{Reminders: []models.Reminder{}}
	case models.WidgetTypeNote:
		return models.WidgetData{Notes: []models.Note{}}
	case models.WidgetTypeExpense:
		return models.WidgetData{Categories: []models.ExpenseCategory{}, Expenses: []models.Expense{}}
	default:
		return models.WidgetData{}
	}
}
