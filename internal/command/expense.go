package command

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/store"
)

// expensePattern matches "20 dollars for groceries" style fragments;
// spentPattern is the fallback for a "spent" lead-in.
var (
	expensePattern = regexp.MustCompile(`(\d+)(?:\s*dollars?)?\s+(?:for|on|under)\s+(.+)`)
	spentPattern   = regexp.MustCompile(`spent\s+(\d+)(?:\s*dollars?)?\s+(?:for|on|under)\s+(.+)`)
)

func (p *Processor) handleExpense(text string) (*Result, error) {
	m := expensePattern.FindStringSubmatch(text)
	if m == nil {
		m = spentPattern.FindStringSubmatch(text)
	}
	if m == nil {
		return nil, &NotUnderstoodError{What: "the expense amount and category"}
	}

	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &NotUnderstoodError{What: "the expense amount"}
	}
	categoryName := strings.TrimSpace(m[2])

	widget, ok := p.store.FindByType(models.WidgetTypeExpense)
	if !ok {
		widget = p.store.Add(models.WidgetTypeExpense, nil)
	}

	categories := append([]models.ExpenseCategory{}, widget.Data.Categories...)
	categoryID := ""
	for _, c := range categories {
		if strings.EqualFold(c.Name, categoryName) {
			categoryID = c.ID
			break
		}
	}
	if categoryID == "" {
		categoryID = models.NewRecordID()
		categories = append(categories, models.ExpenseCategory{
			ID:    categoryID,
			Name:  categoryName,
			Color: randomColor(),
		})
	}

	expense := models.Expense{
		ID:          models.NewRecordID(),
		Amount:      float64(amount),
		Description: fmt.Sprintf("Voice command: %d for %s", amount, categoryName),
		CategoryID:  categoryID,
		Date:        time.Now().UTC(),
	}

	expenses := append(append([]models.Expense{}, widget.Data.Expenses...), expense)
	w, err := p.store.UpdateWidget(widget.ID, store.Update{
		Data:       &models.WidgetData{Categories: categories, Expenses: expenses},
		DataPolicy: store.MergeShallow,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Handler:  "expense",
		WidgetID: w.ID,
		Detail:   fmt.Sprintf("Expense of $%d added under %s", amount, categoryName),
	}, nil
}

// randomColor returns a random hex color for a newly created category.
func randomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(0xffffff+1))
}
