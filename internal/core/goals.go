package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Milestones are the progress percentages that trigger a one-time notice.
var Milestones = []int{25, 50, 75, 100}

// DepositResult describes the outcome of a goal deposit. Goal is the
// updated copy; the input slice is never modified.
type DepositResult struct {
	Goal       Goal    `json:"goal"`
	Previous   float64 `json:"previous"`
	Current    float64 `json:"current"`
	Milestones []int   `json:"milestones"`
}

// Deposit adds amount to the goal goalID, clamping at the target. When
// subGoalID is set the sub-goal is credited (and clamped) too; the parent
// always grows by the raw amount, independently of the sub-goal totals.
func Deposit(goals []Goal, goalID string, amount Money, subGoalID string) (DepositResult, error) {
	if err := amount.Validate(); err != nil {
		return DepositResult{}, err
	}
	i := FindGoal(goals, goalID)
	if i < 0 {
		return DepositResult{}, ErrGoalNotFound
	}
	g := goals[i].Clone()

	if subGoalID != "" {
		found := false
		for j := range g.SubGoals {
			if g.SubGoals[j].ID != subGoalID {
				continue
			}
			sg := &g.SubGoals[j]
			sg.CurrentAmount = MinMoney(sg.CurrentAmount.Add(amount), sg.TargetAmount)
			found = true
			break
		}
		if !found {
			return DepositResult{}, ErrSubGoalNotFound
		}
	}
	for j := range g.SubGoals {
		g.SubGoals[j].IsCompleted = g.SubGoals[j].CurrentAmount.Cents >= g.SubGoals[j].TargetAmount.Cents
	}

	prev := g.Progress()
	g.CurrentAmount = MinMoney(g.CurrentAmount.Add(amount), g.TargetAmount)
	curr := g.Progress()

	return DepositResult{
		Goal:       g,
		Previous:   prev,
		Current:    curr,
		Milestones: CrossedMilestones(prev, curr),
	}, nil
}

// CrossedMilestones returns every milestone t with prev < t <= curr.
func CrossedMilestones(prev, curr float64) []int {
	var out []int
	for _, m := range Milestones {
		t := float64(m)
		if prev < t && curr >= t {
			out = append(out, m)
		}
	}
	return out
}

// Prediction is a best-effort estimate of when a goal will be reached,
// extrapolated from the average monthly contribution so far.
type Prediction struct {
	Available       bool   `json:"available"`
	MonthlyAverage  Money  `json:"monthlyAverage"`
	MonthsRemaining int    `json:"monthsRemaining"`
	EstimatedDate   Date   `json:"estimatedDate"`
	Reason          string `json:"reason,omitempty"`
}

const noPredictionReason = "no prediction available"

// RelatedTransactions returns the transactions linked to g, either through
// GoalID or because their description mentions the goal name.
func RelatedTransactions(g Goal, txs []Transaction) []Transaction {
	fold := cases.Fold()
	name := fold.String(strings.TrimSpace(g.Name))
	var out []Transaction
	for _, t := range txs {
		if t.GoalID != "" {
			if t.GoalID == g.ID {
				out = append(out, t)
			}
			continue
		}
		if name != "" && strings.Contains(fold.String(t.Description), name) {
			out = append(out, t)
		}
	}
	return out
}

// PredictCompletion needs at least two related transactions. Months are
// counted as calendar-month boundaries since the oldest one, minimum one.
func PredictCompletion(g Goal, txs []Transaction, today Date) Prediction {
	related := RelatedTransactions(g, txs)
	if len(related) < 2 {
		return Prediction{Reason: noPredictionReason}
	}

	oldest := related[0].Date
	var total Money
	for _, t := range related {
		total = total.Add(t.Amount)
		if t.Date.Before(oldest) {
			oldest = t.Date
		}
	}
	months := MonthsBetween(oldest, today)
	if months < 1 {
		months = 1
	}
	avg := Money{Cents: total.Cents / int64(months)}
	if total.Cents <= 0 || avg.Cents <= 0 {
		return Prediction{Reason: noPredictionReason}
	}

	remaining := g.Remaining()
	// ceil(remaining / (total / months)) without float rounding.
	n := (remaining.Cents*int64(months) + total.Cents - 1) / total.Cents
	return Prediction{
		Available:       true,
		MonthlyAverage:  avg,
		MonthsRemaining: int(n),
		EstimatedDate:   today.AddMonths(int(n)),
	}
}
