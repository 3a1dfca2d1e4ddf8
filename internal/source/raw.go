// Package source defines the data collaborator of the reporting engine: the
// raw wire shapes a backend returns and the ports every adapter implements.
//
// Raw types are deliberately lenient. A malformed field in one record must not
// fail decoding of the whole page; validation happens later in reconcile,
// which drops the record instead.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Scalar holds a JSON scalar as text, whether it arrived as a string, a
// number or a boolean. null decodes to the empty string.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("decode scalar: %w", err)
		}
		*s = Scalar(strings.TrimSpace(str))
	default:
		*s = Scalar(data)
	}
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s Scalar) String() string {
	return string(s)
}

// IsZero reports whether the scalar is empty or the numeric zero the backend
// uses for a missing foreign key.
func (s Scalar) IsZero() bool {
	return s == "" || s == "0"
}

type (
	RawCategory struct {
		ID   Scalar `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}

	RawTransaction struct {
		ID          Scalar       `json:"id"`
		CategoryID  Scalar       `json:"category_id"`
		Category    *RawCategory `json:"category,omitempty"`
		Amount      Scalar       `json:"amount"`
		Date        Scalar       `json:"date"`
		Description string       `json:"description"`
	}

	// RawMeta is the page envelope. Every field may be missing.
	RawMeta struct {
		Page     Scalar `json:"page"`
		LastPage Scalar `json:"last_page"`
		Total    Scalar `json:"total"`
		Limit    Scalar `json:"limit"`
	}

	RawPage struct {
		Data []RawTransaction `json:"data"`
		Meta RawMeta          `json:"meta"`
	}

	RawBalance struct {
		TotalIncome  Scalar `json:"total_income"`
		TotalExpense Scalar `json:"total_expense"`
		Balance      Scalar `json:"balance"`
	}
)

// HasCategoryLink reports whether the record references a category at all,
// by foreign key or by an embedded object.
func (t RawTransaction) HasCategoryLink() bool {
	if !t.CategoryID.IsZero() {
		return true
	}
	return t.Category != nil && (!t.Category.ID.IsZero() || t.Category.Name != "")
}

// EffectiveCategoryID returns the foreign key, falling back to the embedded object's ID.
func (t RawTransaction) EffectiveCategoryID() string {
	if !t.CategoryID.IsZero() {
		return t.CategoryID.String()
	}
	if t.Category != nil && !t.Category.ID.IsZero() {
		return t.Category.ID.String()
	}
	return ""
}
