// Package store defines LedgerStore, the single data-access capability the
// ledger services depend on, and the balance bookkeeping both of its
// implementations share.
package store

import (
	"context"
	"sort"

	"anjo/internal/core"

	"github.com/google/uuid"
)

// Mode says which backend serves a session.
type Mode string

const (
	// ModeLocal keeps the whole ledger in one durable local record (guest use).
	ModeLocal Mode = "local"
	// ModeRemote keeps the ledger in remote collections keyed by owner.
	ModeRemote Mode = "remote"
)

// LedgerStore is the persistence port. Implementations are the sole writers
// of account balances: every transaction mutation adjusts the owning
// account in the same unit of work.
type LedgerStore interface {
	// ListTransactions returns transactions ordered by date, newest first.
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	// CreateTransaction stores t (assigning an id when empty) and adds its
	// signed amount to its account.
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	// UpdateTransaction replaces every field of the transaction t.ID,
	// reversing the old balance effect and applying the new one.
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	// DeleteTransaction removes the transaction and reverses its balance effect.
	DeleteTransaction(ctx context.Context, id string) error

	ListGoals(ctx context.Context) ([]core.Goal, error)
	// CreateGoal stores a new goal with its current amount reset to zero.
	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	// UpdateGoal changes goal metadata and sub-goals. The stored current
	// amount is kept, clamped to the new target.
	UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	// SaveGoalProgress persists the amounts of a goal produced by core.Deposit.
	SaveGoalProgress(ctx context.Context, g core.Goal) (core.Goal, error)
	DeleteGoal(ctx context.Context, id string) error

	// ListCategories returns the built-in categories followed by user ones.
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)

	ListAccounts(ctx context.Context) ([]core.Account, error)
	// CreateAccount stores a new account with a zero balance.
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)

	// Snapshot returns the whole ledger.
	Snapshot(ctx context.Context) (core.Ledger, error)
	Mode() Mode
}

// NewID returns a time-ordered UUIDv7 string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SortTransactions orders txs by date, newest first, keeping the relative
// order of same-day entries.
func SortTransactions(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[j].Date.Before(txs[i].Date)
	})
}

// Rebalance returns a copy of accounts with the balance effect of before
// reversed and the effect of after applied. Either may be nil. Both
// accounts must exist.
func Rebalance(accounts []core.Account, before, after *core.Transaction) ([]core.Account, error) {
	out := make([]core.Account, len(accounts))
	copy(out, accounts)
	if before != nil {
		i := core.FindAccount(out, before.AccountID)
		if i < 0 {
			return nil, core.ErrAccountNotFound
		}
		out[i].Balance = out[i].Balance.Sub(before.Signed())
	}
	if after != nil {
		i := core.FindAccount(out, after.AccountID)
		if i < 0 {
			return nil, core.ErrAccountNotFound
		}
		out[i].Balance = out[i].Balance.Add(after.Signed())
	}
	return out, nil
}

// ChangedAccounts returns the accounts of next whose balance differs from prev.
func ChangedAccounts(prev, next []core.Account) []core.Account {
	var out []core.Account
	for _, a := range next {
		i := core.FindAccount(prev, a.ID)
		if i < 0 || prev[i].Balance != a.Balance {
			out = append(out, a)
		}
	}
	return out
}

// PrepareGoalUpdate merges an incoming goal with the stored one: metadata
// comes from incoming, the current amount from stored, clamped to the new
// target. Sub-goal flags are recomputed.
func PrepareGoalUpdate(stored, incoming core.Goal) core.Goal {
	out := incoming.Clone()
	out.ID = stored.ID
	out.CurrentAmount = core.MinMoney(stored.CurrentAmount, out.TargetAmount)
	NormalizeSubGoals(&out)
	return out
}

// NormalizeSubGoals assigns missing sub-goal ids, clamps amounts and
// recomputes completion flags.
func NormalizeSubGoals(g *core.Goal) {
	for i := range g.SubGoals {
		sg := &g.SubGoals[i]
		if sg.ID == "" {
			sg.ID = NewID()
		}
		if sg.CurrentAmount.Cents < 0 {
			sg.CurrentAmount = core.Money{}
		}
		sg.CurrentAmount = core.MinMoney(sg.CurrentAmount, sg.TargetAmount)
		sg.IsCompleted = sg.CurrentAmount.Cents >= sg.TargetAmount.Cents
	}
}

// PrepareNewGoal assigns an id and resets amounts for a goal being created.
func PrepareNewGoal(g core.Goal) core.Goal {
	out := g.Clone()
	if out.ID == "" {
		out.ID = NewID()
	}
	out.CurrentAmount = core.Money{}
	for i := range out.SubGoals {
		out.SubGoals[i].CurrentAmount = core.Money{}
	}
	NormalizeSubGoals(&out)
	return out
}
