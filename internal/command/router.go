// Package command interprets transcribed natural-language utterances and
// applies them as widget mutations.
package command

import (
	"strings"

	"go.uber.org/zap"

	"github.com/voiceboard/voiceboard/internal/store"
)

// Result describes what a successfully processed command did.
type Result struct {
	Handler  string `json:"handler"`   // which domain handled the command
	WidgetID string `json:"widget_id"` // widget that was mutated
	Detail   string `json:"detail"`    // user-facing confirmation text
}

// route pairs a keyword predicate with its domain handler. Routes are
// evaluated in fixed priority order and only the first match runs, even
// when the text matches several categories.
type route struct {
	name   string
	match  func(text string) bool
	handle func(text string) (*Result, error)
}

// Processor routes lowercase command text to exactly one domain handler.
type Processor struct {
	store  *store.Store
	log    *zap.Logger
	routes []route
}

// NewProcessor creates a command processor bound to a widget store.
func NewProcessor(s *store.Store, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Processor{store: s, log: log}
	p.routes = []route{
		{
			name: "reminder",
			match: func(t string) bool {
				return strings.Contains(t, "reminder")
			},
			handle: p.handleReminder,
		},
		{
			name: "task",
			match: func(t string) bool {
				return strings.Contains(t, "task") || strings.Contains(t, "todo") ||
					strings.Contains(t, "add to list")
			},
			handle: p.handleTask,
		},
		// "remind me" phrasing only reaches the reminder handler when no task
		// keyword claimed the text first.
		{
			name: "reminder",
			match: func(t string) bool {
				return strings.Contains(t, "reminder") || strings.Contains(t, "remind me")
			},
			handle: p.handleReminder,
		},
		{
			name: "note",
			match: func(t string) bool {
				return strings.Contains(t, "note") || strings.Contains(t, "write down")
			},
			handle: p.handleNote,
		},
		{
			name: "expense",
			match: func(t string) bool {
				return strings.Contains(t, "expense") || strings.Contains(t, "spent") ||
					strings.Contains(t, "cost")
			},
			handle: p.handleExpense,
		},
	}
	return p
}

// Process interprets one command. The alarm handler runs unconditionally
// first and may decline; after that the keyword routes are mutually
// exclusive. Handlers recompute the full field before writing, so a
// failure never leaves partial state behind.
func (p *Processor) Process(text string) (*Result, error) {
	lower := strings.TrimSpace(strings.ToLower(text))
	p.log.Debug("processing_command", zap.String("text", lower))

	// The alarm handler runs first and may decline (for example when the
	// text only grazed its keywords, or the time failed to parse) so a
	// later route still gets its chance. Its error is kept as the
	// fallback diagnosis when nothing else matches.
	res, alarmErr := p.handleAlarm(lower)
	if res != nil {
		return res, nil
	}

	for _, r := range p.routes {
		if !r.match(lower) {
			continue
		}
		res, err := r.handle(lower)
		if err != nil {
			p.log.Info("command_failed",
				zap.String("handler", r.name),
				zap.Error(err),
			)
			return nil, err
		}
		p.log.Info("command_processed",
			zap.String("handler", r.name),
			zap.String("widget_id", res.WidgetID),
		)
		return res, nil
	}

	if alarmErr != nil {
		return nil, alarmErr
	}
	return nil, ErrNotRecognized
}
