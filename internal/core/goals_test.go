package core

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositMilestone(t *testing.T) {
	goals := []Goal{{ID: "g", Name: "Trip", TargetAmount: Cents(1000), CurrentAmount: Cents(200)}}
	res, err := Deposit(goals, "g", Cents(300), "")
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.Goal.CurrentAmount.Cents)
	assert.InDelta(t, 20.0, res.Previous, 1e-9)
	assert.InDelta(t, 50.0, res.Current, 1e-9)
	assert.Equal(t, []int{25, 50}, res.Milestones)
	assert.Equal(t, int64(200), goals[0].CurrentAmount.Cents, "input must not be modified")
}

func TestDepositClampsAtTarget(t *testing.T) {
	goals := []Goal{{ID: "g", TargetAmount: Cents(1000), CurrentAmount: Cents(900)}}
	res, err := Deposit(goals, "g", Cents(5000), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Goal.CurrentAmount.Cents)
	assert.Equal(t, []int{100}, res.Milestones)
	assert.True(t, res.Goal.Complete())

	res, err = Deposit([]Goal{res.Goal}, "g", Cents(1), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Goal.CurrentAmount.Cents)
	assert.Empty(t, res.Milestones, "a complete goal crosses nothing new")
}

func TestDepositErrors(t *testing.T) {
	goals := []Goal{{ID: "g", TargetAmount: Cents(1000), SubGoals: []SubGoal{{ID: "s", TargetAmount: Cents(10)}}}}

	_, err := Deposit(goals, "g", Cents(0), "")
	assert.True(t, errors.Is(err, ErrInvalidAmount))
	_, err = Deposit(goals, "g", Cents(-10), "")
	assert.True(t, errors.Is(err, ErrInvalidAmount))
	_, err = Deposit(goals, "missing", Cents(10), "")
	assert.True(t, errors.Is(err, ErrGoalNotFound))
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = Deposit(goals, "g", Cents(10), "nope")
	assert.True(t, errors.Is(err, ErrSubGoalNotFound))
	// Amount is checked before the lookup.
	_, err = Deposit(goals, "missing", Cents(0), "")
	assert.True(t, errors.Is(err, ErrInvalidAmount))
}

func TestDepositIntoSubGoal(t *testing.T) {
	goals := []Goal{{
		ID:           "g",
		TargetAmount: Cents(1000),
		SubGoals: []SubGoal{
			{ID: "s1", TargetAmount: Cents(100)},
			{ID: "s2", TargetAmount: Cents(900)},
		},
	}}
	res, err := Deposit(goals, "g", Cents(150), "s1")
	require.NoError(t, err)
	sg := res.Goal.SubGoals[0]
	assert.Equal(t, int64(100), sg.CurrentAmount.Cents)
	assert.True(t, sg.IsCompleted)
	assert.False(t, res.Goal.SubGoals[1].IsCompleted)
	// The parent grows by the raw deposit, not by the clamped sub-goal total.
	assert.Equal(t, int64(150), res.Goal.CurrentAmount.Cents)
	assert.False(t, goals[0].SubGoals[0].IsCompleted)
}

func TestClampInvariantUnderRandomDeposits(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 50; round++ {
		g := Goal{ID: "g", TargetAmount: Cents(int64(1 + r.Intn(10000))), SubGoals: []SubGoal{{ID: "s", TargetAmount: Cents(int64(1 + r.Intn(500)))}}}
		for i := 0; i < 20; i++ {
			sub := ""
			if r.Intn(2) == 0 {
				sub = "s"
			}
			res, err := Deposit([]Goal{g}, "g", Cents(int64(1+r.Intn(3000))), sub)
			require.NoError(t, err)
			g = res.Goal
			require.GreaterOrEqual(t, g.CurrentAmount.Cents, int64(0))
			require.LessOrEqual(t, g.CurrentAmount.Cents, g.TargetAmount.Cents)
			s := g.SubGoals[0]
			require.LessOrEqual(t, s.CurrentAmount.Cents, s.TargetAmount.Cents)
			require.Equal(t, s.CurrentAmount.Cents >= s.TargetAmount.Cents, s.IsCompleted)
		}
	}
}

func TestCrossedMilestones(t *testing.T) {
	assert.Empty(t, CrossedMilestones(10, 20))
	assert.Equal(t, []int{25}, CrossedMilestones(24.9, 25))
	assert.Empty(t, CrossedMilestones(25, 30), "already at the threshold does not re-cross")
	assert.Equal(t, []int{25, 50, 75, 100}, CrossedMilestones(0, 100))
}

func TestPredictInsufficientData(t *testing.T) {
	g := Goal{ID: "g", Name: "Trip", TargetAmount: Cents(1000)}
	today := NewDate(2025, 6, 1)
	p := PredictCompletion(g, nil, today)
	assert.False(t, p.Available)
	assert.Equal(t, "no prediction available", p.Reason)

	one := []Transaction{{GoalID: "g", Amount: Cents(100), Date: NewDate(2025, 1, 1)}}
	assert.False(t, PredictCompletion(g, one, today).Available)
}

func TestPredictCompletion(t *testing.T) {
	g := Goal{ID: "g", Name: "Viagem", TargetAmount: Cents(10000), CurrentAmount: Cents(4000)}
	txs := []Transaction{
		{GoalID: "g", Amount: Cents(2000), Date: NewDate(2025, 3, 10)},
		{Description: "depósito VIAGEM", Amount: Cents(2000), Date: NewDate(2025, 1, 10)},
		{GoalID: "other", Description: "viagem", Amount: Cents(99999), Date: NewDate(2020, 1, 1)},
		{Description: "mercado", Amount: Cents(99999), Date: NewDate(2020, 1, 1)},
	}
	today := NewDate(2025, 5, 15)
	p := PredictCompletion(g, txs, today)
	require.True(t, p.Available)
	// 4000 over 4 months is 1000/month; 6000 remaining is 6 months.
	assert.Equal(t, int64(1000), p.MonthlyAverage.Cents)
	assert.Equal(t, 6, p.MonthsRemaining)
	assert.Equal(t, "2025-11-15", p.EstimatedDate.String())
}

func TestPredictRoundsMonthsUp(t *testing.T) {
	g := Goal{ID: "g", Name: "Car", TargetAmount: Cents(1000), CurrentAmount: Cents(0)}
	txs := []Transaction{
		{GoalID: "g", Amount: Cents(150), Date: NewDate(2025, 5, 1)},
		{GoalID: "g", Amount: Cents(150), Date: NewDate(2025, 5, 2)},
	}
	p := PredictCompletion(g, txs, NewDate(2025, 5, 20))
	require.True(t, p.Available)
	assert.Equal(t, int64(300), p.MonthlyAverage.Cents)
	assert.Equal(t, 4, p.MonthsRemaining)
}

func TestPredictCompletedGoal(t *testing.T) {
	g := Goal{ID: "g", TargetAmount: Cents(100), CurrentAmount: Cents(100)}
	txs := []Transaction{
		{GoalID: "g", Amount: Cents(50), Date: NewDate(2025, 1, 1)},
		{GoalID: "g", Amount: Cents(50), Date: NewDate(2025, 2, 1)},
	}
	today := NewDate(2025, 3, 1)
	p := PredictCompletion(g, txs, today)
	require.True(t, p.Available)
	assert.Equal(t, 0, p.MonthsRemaining)
	assert.Equal(t, today.String(), p.EstimatedDate.String())
}
