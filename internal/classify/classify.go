// Package classify resolves the effective category label and polarity of a
// transaction. It is the only place the "Uncategorized"/expense fallback is
// decided; aggregators, digests and tables all go through a Classifier.
package classify

import (
	"strings"

	"aruskas/internal/core"
)

// Default classifies using only the category embedded in each transaction.
var Default = New(nil)

// Classifier resolves categories from the transaction itself and, when the
// embedded link is empty, from an index of known categories.
type Classifier struct {
	index map[string]core.Category
}

// New builds a classifier over the known categories. Categories without an ID
// are ignored; on duplicate IDs the last one wins.
func New(categories []core.Category) *Classifier {
	index := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			continue
		}
		index[id] = c
	}
	return &Classifier{index: index}
}

// Classify returns the label and polarity of tx.
func (c *Classifier) Classify(tx core.Transaction) core.Classification {
	cat, ok := c.resolve(tx)
	if !ok {
		return core.Classification{Label: core.UncategorizedLabel, Polarity: core.Expense}
	}
	return core.Classification{Label: cat.Name, Polarity: PolarityOf(cat.Type)}
}

// Polarity is a shorthand for Classify(tx).Polarity.
func (c *Classifier) Polarity(tx core.Transaction) core.Polarity {
	return c.Classify(tx).Polarity
}

// Len returns the number of indexed categories.
func (c *Classifier) Len() int {
	if c == nil {
		return 0
	}
	return len(c.index)
}

func (c *Classifier) resolve(tx core.Transaction) (core.Category, bool) {
	if tx.Category != nil && tx.Category.Name != "" {
		return *tx.Category, true
	}
	if c == nil || tx.CategoryID == "" {
		return core.Category{}, false
	}
	cat, ok := c.index[tx.CategoryID]
	if !ok || cat.Name == "" {
		return core.Category{}, false
	}
	return cat, true
}

// PolarityOf maps a category type to a polarity. Only the literal "income"
// is income; anything else, including empty, is expense.
func PolarityOf(categoryType string) core.Polarity {
	if categoryType == string(core.Income) {
		return core.Income
	}
	return core.Expense
}
