package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// CategoryAmount is the expense total of one category.
type CategoryAmount struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Value      Money  `json:"value"`
	Color      string `json:"color"`
}

// MonthTotals holds the income and expense totals of one calendar month.
type MonthTotals struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"` // 1-12
	Label   string `json:"label"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// TrendMonths is how many months MonthlyTrend keeps.
const TrendMonths = 5

var monthAbbrev = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func matchesAccount(t Transaction, accountID string) bool {
	return accountID == "" || t.AccountID == accountID
}

func sumOf(txs []Transaction, typ TransactionType, accountID string) Money {
	var total Money
	for _, t := range txs {
		if t.Type == typ && matchesAccount(t, accountID) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TotalIncome sums income amounts, restricted to accountID when it is not empty.
func TotalIncome(txs []Transaction, accountID string) Money {
	return sumOf(txs, Income, accountID)
}

// TotalExpenses sums expense amounts, restricted to accountID when it is not empty.
func TotalExpenses(txs []Transaction, accountID string) Money {
	return sumOf(txs, Expense, accountID)
}

// Balance is TotalIncome minus TotalExpenses. For a fully loaded ledger it
// equals the cached Account.Balance of accountID.
func Balance(txs []Transaction, accountID string) Money {
	return TotalIncome(txs, accountID).Sub(TotalExpenses(txs, accountID))
}

// ExpensesByCategory totals expenses per category id, largest first. Ties
// keep the order in which the categories were first seen.
func ExpensesByCategory(txs []Transaction, accountID string) []CategoryAmount {
	out := []CategoryAmount{}
	index := make(map[string]int)
	for _, t := range txs {
		if t.Type != Expense || !matchesAccount(t, accountID) {
			continue
		}
		i, ok := index[t.Category.ID]
		if !ok {
			i = len(out)
			index[t.Category.ID] = i
			out = append(out, CategoryAmount{
				CategoryID: t.Category.ID,
				Name:       t.Category.Name,
				Color:      t.Category.Color,
			})
		}
		out[i].Value = out[i].Value.Add(t.Amount)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Value.Cents > out[b].Value.Cents
	})
	return out
}

// MonthlyTrend groups transactions by calendar month and returns the most
// recent TrendMonths groups, oldest first.
func MonthlyTrend(txs []Transaction) []MonthTotals {
	type key struct{ year, month int }
	groups := make(map[key]*MonthTotals)
	for _, t := range txs {
		k := key{t.Date.Year(), t.Date.Month()}
		g, ok := groups[k]
		if !ok {
			g = &MonthTotals{
				Year:  k.year,
				Month: k.month,
				Label: fmt.Sprintf("%s %d", monthAbbrev[k.month-1], k.year),
			}
			groups[k] = g
		}
		if t.Type == Income {
			g.Income = g.Income.Add(t.Amount)
		} else {
			g.Expense = g.Expense.Add(t.Amount)
		}
	}

	out := make([]MonthTotals, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Year != out[b].Year {
			return out[a].Year < out[b].Year
		}
		return out[a].Month < out[b].Month
	})
	if len(out) > TrendMonths {
		out = out[len(out)-TrendMonths:]
	}
	return out
}

// FinancialSummary renders a deterministic digest of the ledger, used as
// the prompt context for tips:
//
//	Balance: R$ 350,00. Income: R$ 500,00. Expenses: R$ 150,00.
//	Top categories: Food: R$ 80,00, Transport: R$ 70,00.
//	Goals: Trip: 50% complete.
func FinancialSummary(txs []Transaction, goals []Goal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Balance: %s. Income: %s. Expenses: %s.",
		Balance(txs, ""), TotalIncome(txs, ""), TotalExpenses(txs, ""))

	b.WriteString(" Top categories: ")
	cats := ExpensesByCategory(txs, "")
	if len(cats) > 3 {
		cats = cats[:3]
	}
	if len(cats) == 0 {
		b.WriteString("none")
	}
	for i, c := range cats {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", c.Name, c.Value)
	}

	b.WriteString(". Goals: ")
	if len(goals) == 0 {
		b.WriteString("none")
	}
	for i, g := range goals {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %d%% complete", g.Name, int(math.Round(g.Progress())))
	}
	b.WriteString(".")
	return b.String()
}
