package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter selects transactions. Zero-valued fields match everything; Month
// is 0-based (0 is January) when set.
type Filter struct {
	Search     string `json:"search,omitempty"`
	Month      *int   `json:"month,omitempty"`
	Year       *int   `json:"year,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
	AccountID  string `json:"accountId,omitempty"`
}

// IsZero reports whether the filter has no predicate set.
func (f Filter) IsZero() bool {
	return f.Search == "" && f.Month == nil && f.Year == nil && f.CategoryID == "" && f.AccountID == ""
}

// Apply returns the transactions matching every predicate of f, in input order.
func (f Filter) Apply(txs []Transaction) []Transaction {
	m := f.matcher()
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if m(t) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether a single transaction satisfies f.
func (f Filter) Matches(t Transaction) bool {
	return f.matcher()(t)
}

func (f Filter) matcher() func(Transaction) bool {
	// A Caser keeps state, so each matcher gets its own.
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(f.Search))
	return func(t Transaction) bool {
		if needle != "" &&
			!strings.Contains(fold.String(t.Description), needle) &&
			!strings.Contains(fold.String(t.Category.Name), needle) {
			return false
		}
		if f.Month != nil && t.Date.Month()-1 != *f.Month {
			return false
		}
		if f.Year != nil && t.Date.Year() != *f.Year {
			return false
		}
		if f.CategoryID != "" && t.Category.ID != f.CategoryID {
			return false
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			return false
		}
		return true
	}
}
