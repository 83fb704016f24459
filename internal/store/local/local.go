// Package local is the guest-mode LedgerStore. The whole ledger lives in a
// single record of a storage.KV and every mutation reads it, applies the
// change in memory and writes it back.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"anjo/internal/core"
	"anjo/internal/log"
	"anjo/internal/storage"
	"anjo/internal/store"
)

// RecordKey is the key of the guest ledger record.
const RecordKey = "anjo_guest_data"

// guestData is the persisted shape of the record. Categories holds only
// user-defined categories.
type guestData struct {
	Transactions []core.Transaction `json:"transactions"`
	Goals        []core.Goal        `json:"goals"`
	Categories   []core.Category    `json:"categories"`
	Accounts     []core.Account     `json:"accounts"`
}

func initialData() guestData {
	return guestData{
		Transactions: []core.Transaction{},
		Goals:        []core.Goal{},
		Categories:   []core.Category{},
		Accounts:     []core.Account{core.DefaultAccount()},
	}
}

type Store struct {
	kv     storage.KV
	key    string
	logger *log.Logger

	// mu makes read-modify-write of the record a critical section.
	mu sync.Mutex
}

var _ store.LedgerStore = (*Store)(nil)

func New(kv storage.KV, logger *log.Logger) *Store {
	return &Store{kv: kv, key: RecordKey, logger: logger.WithComponent(log.ComponentStorage)}
}

func (s *Store) Mode() store.Mode { return store.ModeLocal }

func (s *Store) load(ctx context.Context) (guestData, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Guest record read failed", log.FieldError, err)
		return guestData{}, core.ErrInternal.Wrap(err)
	}
	if !ok {
		return initialData(), nil
	}
	var d guestData
	if err := json.Unmarshal(raw, &d); err != nil {
		s.logger.ErrorContext(ctx, "Guest record is malformed", log.FieldError, err)
		return guestData{}, core.ErrInternal.Wrap(fmt.Errorf("decode %s: %w", s.key, err))
	}
	if len(d.Accounts) == 0 {
		d.Accounts = []core.Account{core.DefaultAccount()}
	}
	return d, nil
}

func (s *Store) read(ctx context.Context) (guestData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// mutate applies fn to the current record and writes the result. Nothing
// is written when fn fails.
func (s *Store) mutate(ctx context.Context, fn func(*guestData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&d); err != nil {
		return err
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return core.ErrInternal.Wrap(err)
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		s.logger.ErrorContext(ctx, "Guest record write failed", log.FieldError, err)
		return core.ErrInternal.Wrap(err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	d, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	store.SortTransactions(d.Transactions)
	return d.Transactions, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = store.NewID()
	}
	err := s.mutate(ctx, func(d *guestData) error {
		accounts, err := store.Rebalance(d.Accounts, nil, &t)
		if err != nil {
			return err
		}
		d.Accounts = accounts
		d.Transactions = append(d.Transactions, t)
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	err := s.mutate(ctx, func(d *guestData) error {
		i := core.FindTransaction(d.Transactions, t.ID)
		if i < 0 {
			return core.ErrTransactionNotFound
		}
		old := d.Transactions[i]
		accounts, err := store.Rebalance(d.Accounts, &old, &t)
		if err != nil {
			return err
		}
		d.Accounts = accounts
		d.Transactions[i] = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.mutate(ctx, func(d *guestData) error {
		i := core.FindTransaction(d.Transactions, id)
		if i < 0 {
			return core.ErrTransactionNotFound
		}
		old := d.Transactions[i]
		accounts, err := store.Rebalance(d.Accounts, &old, nil)
		if err != nil {
			return err
		}
		d.Accounts = accounts
		d.Transactions = append(d.Transactions[:i], d.Transactions[i+1:]...)
		return nil
	})
}

func (s *Store) ListGoals(ctx context.Context) ([]core.Goal, error) {
	d, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return d.Goals, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g = store.PrepareNewGoal(g)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	err := s.mutate(ctx, func(d *guestData) error {
		d.Goals = append(d.Goals, g)
		return nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	var out core.Goal
	err := s.mutate(ctx, func(d *guestData) error {
		i := core.FindGoal(d.Goals, g.ID)
		if i < 0 {
			return core.ErrGoalNotFound
		}
		out = store.PrepareGoalUpdate(d.Goals[i], g)
		if err := out.Validate(); err != nil {
			return err
		}
		d.Goals[i] = out
		return nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	return out, nil
}

func (s *Store) SaveGoalProgress(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	err := s.mutate(ctx, func(d *guestData) error {
		i := core.FindGoal(d.Goals, g.ID)
		if i < 0 {
			return core.ErrGoalNotFound
		}
		d.Goals[i] = g.Clone()
		return nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	return s.mutate(ctx, func(d *guestData) error {
		i := core.FindGoal(d.Goals, id)
		if i < 0 {
			return core.ErrGoalNotFound
		}
		d.Goals = append(d.Goals[:i], d.Goals[i+1:]...)
		return nil
	})
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	d, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return append(core.BuiltinCategories(), d.Categories...), nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" || core.IsBuiltinCategory(c.ID) {
		c.ID = store.NewID()
	}
	err := s.mutate(ctx, func(d *guestData) error {
		d.Categories = append(d.Categories, c)
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	d, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return d.Accounts, nil
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.ID == "" {
		a.ID = store.NewID()
	}
	a.Balance = core.Money{}
	err := s.mutate(ctx, func(d *guestData) error {
		if core.FindAccount(d.Accounts, a.ID) >= 0 {
			return core.ErrInvalidInput.WithMessage("account id already exists")
		}
		d.Accounts = append(d.Accounts, a)
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (s *Store) Snapshot(ctx context.Context) (core.Ledger, error) {
	d, err := s.read(ctx)
	if err != nil {
		return core.Ledger{}, err
	}
	store.SortTransactions(d.Transactions)
	return core.Ledger{
		Transactions: d.Transactions,
		Goals:        d.Goals,
		Categories:   append(core.BuiltinCategories(), d.Categories...),
		Accounts:     d.Accounts,
	}, nil
}
