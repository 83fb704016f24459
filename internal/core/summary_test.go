package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cat(id, name string, typ TransactionType) Category {
	return Category{ID: id, Name: name, Color: "#000000", Type: typ}
}

func tx(typ TransactionType, cents int64, c Category, account string, date Date) Transaction {
	return Transaction{Type: typ, Amount: Cents(cents), Category: c, AccountID: account, Date: date, PaymentMethod: PaymentCash}
}

func TestEmptyLedger(t *testing.T) {
	assert.Equal(t, int64(0), TotalIncome(nil, "").Cents)
	assert.Equal(t, int64(0), TotalExpenses(nil, "").Cents)
	assert.Equal(t, int64(0), Balance(nil, "").Cents)
	assert.Empty(t, ExpensesByCategory(nil, ""))
	assert.NotNil(t, ExpensesByCategory(nil, ""))
	assert.Empty(t, MonthlyTrend(nil))
}

func TestCategoryBreakdownOrdering(t *testing.T) {
	food := cat("f", "Food", Expense)
	transport := cat("tr", "Transport", Expense)
	d := NewDate(2025, 1, 1)
	txs := []Transaction{
		tx(Expense, 5000, food, "a", d),
		tx(Expense, 3000, food, "a", d),
		tx(Expense, 2000, transport, "a", d),
		tx(Income, 9999, cat("s", "Salary", Income), "a", d),
	}
	got := ExpensesByCategory(txs, "")
	require.Len(t, got, 2)
	assert.Equal(t, "Food", got[0].Name)
	assert.Equal(t, int64(8000), got[0].Value.Cents)
	assert.Equal(t, "Transport", got[1].Name)
	assert.Equal(t, int64(2000), got[1].Value.Cents)
}

func TestCategoryBreakdownTiesKeepFirstSeen(t *testing.T) {
	d := NewDate(2025, 1, 1)
	txs := []Transaction{
		tx(Expense, 100, cat("b", "B", Expense), "a", d),
		tx(Expense, 100, cat("a", "A", Expense), "a", d),
		tx(Expense, 100, cat("c", "C", Expense), "a", d),
	}
	got := ExpensesByCategory(txs, "")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].CategoryID, got[1].CategoryID, got[2].CategoryID})
}

func TestCategoryBreakdownByAccount(t *testing.T) {
	d := NewDate(2025, 1, 1)
	food := cat("f", "Food", Expense)
	txs := []Transaction{
		tx(Expense, 100, food, "a", d),
		tx(Expense, 700, food, "b", d),
	}
	got := ExpensesByCategory(txs, "a")
	require.Len(t, got, 1)
	assert.Equal(t, int64(100), got[0].Value.Cents)
	assert.Empty(t, ExpensesByCategory(txs, "missing"))
}

func TestBalanceIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	accounts := []string{"a", "b", "c"}
	inc := cat("i", "Income", Income)
	exp := cat("e", "Expense", Expense)
	for round := 0; round < 50; round++ {
		var txs []Transaction
		for i := 0; i < r.Intn(30); i++ {
			typ, c := Income, inc
			if r.Intn(2) == 0 {
				typ, c = Expense, exp
			}
			txs = append(txs, tx(typ, int64(1+r.Intn(100000)), c, accounts[r.Intn(3)], NewDate(2025, 1+r.Intn(12), 1)))
		}
		for _, acc := range append(accounts, "") {
			want := TotalIncome(txs, acc).Cents - TotalExpenses(txs, acc).Cents
			require.Equal(t, want, Balance(txs, acc).Cents)

			var signed int64
			for _, t := range txs {
				if acc == "" || t.AccountID == acc {
					signed += t.Signed().Cents
				}
			}
			require.Equal(t, signed, Balance(txs, acc).Cents)
		}
	}
}

func TestMonthlyTrendKeepsLastFiveAscending(t *testing.T) {
	inc := cat("i", "Income", Income)
	exp := cat("e", "Expense", Expense)
	var txs []Transaction
	// Seven months, fed newest first like the ledger order.
	for m := 7; m >= 1; m-- {
		txs = append(txs, tx(Income, int64(m*100), inc, "a", NewDate(2025, m, 3)))
		txs = append(txs, tx(Expense, int64(m*10), exp, "a", NewDate(2025, m, 9)))
	}
	txs = append(txs, tx(Expense, 1, exp, "a", NewDate(2024, 12, 31)))

	got := MonthlyTrend(txs)
	require.Len(t, got, TrendMonths)
	assert.Equal(t, "Mar 2025", got[0].Label)
	assert.Equal(t, "Jul 2025", got[4].Label)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Month, got[i].Month)
	}
	assert.Equal(t, int64(700), got[4].Income.Cents)
	assert.Equal(t, int64(70), got[4].Expense.Cents)
}

func TestMonthlyTrendAcrossYears(t *testing.T) {
	exp := cat("e", "Expense", Expense)
	txs := []Transaction{
		tx(Expense, 1, exp, "a", NewDate(2025, 1, 1)),
		tx(Expense, 1, exp, "a", NewDate(2024, 12, 1)),
	}
	got := MonthlyTrend(txs)
	require.Len(t, got, 2)
	assert.Equal(t, "Dec 2024", got[0].Label)
	assert.Equal(t, "Jan 2025", got[1].Label)
}

func TestFinancialSummary(t *testing.T) {
	d := NewDate(2025, 1, 1)
	txs := []Transaction{
		tx(Income, 50000, cat("s", "Salary", Income), "a", d),
		tx(Expense, 8000, cat("f", "Food", Expense), "a", d),
		tx(Expense, 7000, cat("t", "Transport", Expense), "a", d),
		tx(Expense, 500, cat("g", "Games", Expense), "a", d),
		tx(Expense, 100, cat("b", "Books", Expense), "a", d),
	}
	goals := []Goal{{Name: "Trip", TargetAmount: Cents(1000), CurrentAmount: Cents(500)}}

	got := FinancialSummary(txs, goals)
	assert.Contains(t, got, "Balance: R$ 344,00.")
	assert.Contains(t, got, "Income: R$ 500,00.")
	assert.Contains(t, got, "Expenses: R$ 156,00.")
	assert.Contains(t, got, "Top categories: Food: R$ 80,00, Transport: R$ 70,00, Games: R$ 5,00.")
	assert.NotContains(t, got, "Books")
	assert.Contains(t, got, "Goals: Trip: 50% complete.")
	assert.Equal(t, got, FinancialSummary(txs, goals))

	empty := FinancialSummary(nil, nil)
	assert.Equal(t, "Balance: R$ 0,00. Income: R$ 0,00. Expenses: R$ 0,00. Top categories: none. Goals: none.", empty)
}
