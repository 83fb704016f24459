package store

import (
	"errors"
	"testing"

	"anjo/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebalance(t *testing.T) {
	accounts := []core.Account{{ID: "a"}, {ID: "b", Balance: core.Cents(500)}}
	exp := core.Transaction{Type: core.Expense, Amount: core.Cents(100), AccountID: "a"}
	inc := core.Transaction{Type: core.Income, Amount: core.Cents(40), AccountID: "b"}

	got, err := Rebalance(accounts, nil, &exp)
	require.NoError(t, err)
	assert.Equal(t, int64(-100), got[0].Balance.Cents)
	assert.Equal(t, int64(0), accounts[0].Balance.Cents, "input is not modified")

	got, err = Rebalance(got, &exp, &inc)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got[0].Balance.Cents)
	assert.Equal(t, int64(540), got[1].Balance.Cents)

	changed := ChangedAccounts(accounts, got)
	require.Len(t, changed, 1)
	assert.Equal(t, "b", changed[0].ID)

	missing := core.Transaction{Type: core.Expense, Amount: core.Cents(1), AccountID: "zz"}
	_, err = Rebalance(accounts, nil, &missing)
	assert.True(t, errors.Is(err, core.ErrAccountNotFound))
}

func TestSortTransactions(t *testing.T) {
	txs := []core.Transaction{
		{ID: "old", Date: core.NewDate(2024, 1, 1)},
		{ID: "new", Date: core.NewDate(2025, 1, 1)},
		{ID: "mid1", Date: core.NewDate(2024, 6, 1)},
		{ID: "mid2", Date: core.NewDate(2024, 6, 1)},
	}
	SortTransactions(txs)
	assert.Equal(t, []string{"new", "mid1", "mid2", "old"}, []string{txs[0].ID, txs[1].ID, txs[2].ID, txs[3].ID})
}

func TestPrepareGoal(t *testing.T) {
	g := PrepareNewGoal(core.Goal{Name: "Trip", TargetAmount: core.Cents(1000), CurrentAmount: core.Cents(999),
		SubGoals: []core.SubGoal{{Name: "Flights", TargetAmount: core.Cents(300), CurrentAmount: core.Cents(10)}}})
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, int64(0), g.CurrentAmount.Cents)
	assert.NotEmpty(t, g.SubGoals[0].ID)
	assert.Equal(t, int64(0), g.SubGoals[0].CurrentAmount.Cents)

	stored := g
	stored.CurrentAmount = core.Cents(800)
	updated := PrepareGoalUpdate(stored, core.Goal{Name: "Trip 2", TargetAmount: core.Cents(500), CurrentAmount: core.Cents(1)})
	assert.Equal(t, g.ID, updated.ID)
	assert.Equal(t, "Trip 2", updated.Name)
	assert.Equal(t, int64(500), updated.CurrentAmount.Cents, "current amount clamps to the lowered target")
}
