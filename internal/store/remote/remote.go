// Package remote is the authenticated LedgerStore. Each entity lives as a
// document in an owner-partitioned collection of a docs.Store. Reads go
// through a shared TTL cache; every successful mutation invalidates and
// refetches the collections it touched.
package remote

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"anjo/internal/cache"
	"anjo/internal/core"
	"anjo/internal/docs"
	"anjo/internal/log"
	"anjo/internal/store"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Options configures a Backend.
type Options struct {
	ReadRetries     int
	MutationRetries int
	BaseDelay       time.Duration
	CacheSize       int
	CacheTTL        time.Duration
	// Sleep overrides the backoff wait, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Backend holds what every owner's Store shares: the document store, the
// read cache and the refetch group.
type Backend struct {
	docs   docs.Store
	cache  *cache.LRUCache[[]docs.Document]
	group  singleflight.Group
	reads  RetryPolicy
	writes RetryPolicy
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	// gens counts invalidations per cache key. A load may only fill the
	// cache when no invalidation happened since it started.
	gens map[string]uint64
}

func NewBackend(ds docs.Store, opts Options, logger *log.Logger) *Backend {
	reads := NewRetryPolicy(opts.ReadRetries, opts.BaseDelay)
	writes := NewRetryPolicy(opts.MutationRetries, opts.BaseDelay)
	if opts.Sleep != nil {
		reads.Sleep = opts.Sleep
		writes.Sleep = opts.Sleep
	}
	return &Backend{
		docs:   ds,
		cache:  cache.NewLRUCache[[]docs.Document](opts.CacheSize, opts.CacheTTL),
		reads:  reads,
		writes: writes,
		logger: logger.WithComponent(log.ComponentRemote),
		locks:  make(map[string]*sync.Mutex),
		gens:   make(map[string]uint64),
	}
}

// Cache exposes the read cache so it can be registered for sweeping.
func (b *Backend) Cache() *cache.LRUCache[[]docs.Document] { return b.cache }

// Ping reports the health of the document store when it supports it.
func (b *Backend) Ping(ctx context.Context) error {
	if p, ok := b.docs.(docs.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// For returns the store of one owner.
func (b *Backend) For(owner string) *Store {
	return &Store{b: b, owner: owner, logger: b.logger.With(log.FieldOwner, owner)}
}

func (b *Backend) generation(key string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gens[key]
}

// invalidate bumps the generation of key and drops its cached value.
func (b *Backend) invalidate(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gens[key]++
	b.cache.Delete(key)
}

// fill caches d under key unless key was invalidated after gen was read.
func (b *Backend) fill(key string, gen uint64, d []docs.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gens[key] == gen {
		b.cache.Set(key, d)
	}
}

func (b *Backend) ownerLock(owner string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.locks[owner]
	if !ok {
		m = &sync.Mutex{}
		b.locks[owner] = m
	}
	return m
}

type Store struct {
	b      *Backend
	owner  string
	logger *log.Logger
}

var _ store.LedgerStore = (*Store)(nil)

func (s *Store) Mode() store.Mode { return store.ModeRemote }

// Owner returns the identity whose collections the store reads.
func (s *Store) Owner() string { return s.owner }

func (s *Store) cacheKey(collection string) string { return s.owner + "/" + collection }

// fetch lists a collection from the remote store, bypassing the cache.
func (s *Store) fetch(ctx context.Context, collection string) ([]docs.Document, error) {
	var out []docs.Document
	err := s.b.reads.Do(ctx, s.logger, docs.OpList, collection, func(ctx context.Context) error {
		var err error
		out, err = s.b.docs.List(ctx, s.owner, collection)
		return err
	})
	return out, err
}

// list serves a collection from the cache, loading it once on a miss even
// when several callers miss at the same time.
func (s *Store) list(ctx context.Context, collection string) ([]docs.Document, error) {
	key := s.cacheKey(collection)
	if cached, ok := s.b.cache.Get(key); ok {
		return cached, nil
	}
	gen := s.b.generation(key)
	flight := key + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := s.b.group.Do(flight, func() (any, error) {
		d, err := s.fetch(ctx, collection)
		if err != nil {
			return nil, err
		}
		s.b.fill(key, gen, d)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]docs.Document), nil
}

// refresh drops the cached collections and reloads them. Loads that
// started before the drop can no longer fill the cache. A failed reload
// leaves them uncached; the write it follows already succeeded.
func (s *Store) refresh(ctx context.Context, collections ...string) {
	for _, c := range collections {
		s.b.invalidate(s.cacheKey(c))
		if _, err := s.list(ctx, c); err != nil {
			s.logger.WarnContext(ctx, "Refetch after mutation failed",
				log.FieldOperation, log.OpRefetch,
				log.FieldCollection, c,
				log.FieldError, err)
		}
	}
}

// notFound translates docs.ErrNotFound into the entity's error.
func notFound(err, entity error) error {
	if errors.Is(err, docs.ErrNotFound) {
		return entity
	}
	return err
}

func (s *Store) insert(ctx context.Context, collection, id string, v any) error {
	doc, err := docs.Encode(id, v)
	if err != nil {
		return core.ErrInternal.Wrap(err)
	}
	return s.b.writes.Do(ctx, s.logger, docs.OpInsert, collection, func(ctx context.Context) error {
		return s.b.docs.Insert(ctx, s.owner, collection, doc)
	})
}

func (s *Store) update(ctx context.Context, collection, id string, v any, missing error) error {
	doc, err := docs.Encode(id, v)
	if err != nil {
		return core.ErrInternal.Wrap(err)
	}
	return s.b.writes.Do(ctx, s.logger, docs.OpUpdate, collection, func(ctx context.Context) error {
		return notFound(s.b.docs.Update(ctx, s.owner, collection, doc), missing)
	})
}

func (s *Store) remove(ctx context.Context, collection, id string, missing error) error {
	return s.b.writes.Do(ctx, s.logger, docs.OpDelete, collection, func(ctx context.Context) error {
		return notFound(s.b.docs.Delete(ctx, s.owner, collection, id), missing)
	})
}

func decode[T any](in []docs.Document, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	out, derr := docs.Decode[T](in)
	if derr != nil {
		return nil, core.ErrRemote.WithMessage("stored document is malformed").Wrap(derr)
	}
	return out, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := decode[core.Transaction](s.list(ctx, docs.Transactions))
	if err != nil {
		return nil, err
	}
	store.SortTransactions(txs)
	return txs, nil
}

func (s *Store) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return decode[core.Goal](s.list(ctx, docs.Goals))
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return decode[core.Account](s.list(ctx, docs.Accounts))
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	user, err := decode[core.Category](s.list(ctx, docs.Categories))
	if err != nil {
		return nil, err
	}
	return append(core.BuiltinCategories(), user...), nil
}

// Snapshot loads the four collections concurrently.
func (s *Store) Snapshot(ctx context.Context) (core.Ledger, error) {
	var l core.Ledger
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		l.Transactions, err = s.ListTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		l.Goals, err = s.ListGoals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		l.Categories, err = s.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		l.Accounts, err = s.ListAccounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Ledger{}, err
	}
	return l, nil
}

// freshAccounts reads accounts straight from the remote store so balance
// arithmetic never starts from a stale cached copy.
func (s *Store) freshAccounts(ctx context.Context) ([]core.Account, error) {
	return decode[core.Account](s.fetch(ctx, docs.Accounts))
}

func (s *Store) freshTransaction(ctx context.Context, id string) (core.Transaction, error) {
	txs, err := decode[core.Transaction](s.fetch(ctx, docs.Transactions))
	if err != nil {
		return core.Transaction{}, err
	}
	i := core.FindTransaction(txs, id)
	if i < 0 {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	return txs[i], nil
}

// writeBalances persists the accounts whose balance moved. When one write
// fails the already written ones are restored from prev.
func (s *Store) writeBalances(ctx context.Context, prev, next []core.Account) error {
	changed := store.ChangedAccounts(prev, next)
	for i, a := range changed {
		if err := s.update(ctx, docs.Accounts, a.ID, a, core.ErrAccountNotFound); err != nil {
			for _, done := range changed[:i] {
				j := core.FindAccount(prev, done.ID)
				if j < 0 {
					continue
				}
				if rerr := s.update(ctx, docs.Accounts, done.ID, prev[j], core.ErrAccountNotFound); rerr != nil {
					s.logger.ErrorContext(ctx, "Balance rollback failed",
						log.FieldAccountID, done.ID,
						log.FieldError, rerr)
				}
			}
			return err
		}
	}
	return nil
}

// compensate runs undo after a failed balance write and reports the
// original failure.
func (s *Store) compensate(ctx context.Context, txID string, cause error, undo func(context.Context) error) error {
	// The caller's context may be what failed; undo must still run.
	uctx := context.WithoutCancel(ctx)
	if err := undo(uctx); err != nil {
		s.logger.ErrorContext(ctx, "Transaction compensation failed",
			log.FieldTransactionID, txID,
			log.FieldError, err)
	} else {
		s.logger.WarnContext(ctx, "Transaction write compensated",
			log.FieldTransactionID, txID,
			log.FieldError, cause)
	}
	return cause
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = store.NewID()
	}
	m := s.b.ownerLock(s.owner)
	m.Lock()
	defer m.Unlock()

	prev, err := s.freshAccounts(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	next, err := store.Rebalance(prev, nil, &t)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.insert(ctx, docs.Transactions, t.ID, t); err != nil {
		return core.Transaction{}, err
	}
	if err := s.writeBalances(ctx, prev, next); err != nil {
		return core.Transaction{}, s.compensate(ctx, t.ID, err, func(ctx context.Context) error {
			return s.remove(ctx, docs.Transactions, t.ID, core.ErrTransactionNotFound)
		})
	}
	s.refresh(ctx, docs.Transactions, docs.Accounts)
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	m := s.b.ownerLock(s.owner)
	m.Lock()
	defer m.Unlock()

	old, err := s.freshTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	prev, err := s.freshAccounts(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	next, err := store.Rebalance(prev, &old, &t)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.update(ctx, docs.Transactions, t.ID, t, core.ErrTransactionNotFound); err != nil {
		return core.Transaction{}, err
	}
	if err := s.writeBalances(ctx, prev, next); err != nil {
		return core.Transaction{}, s.compensate(ctx, t.ID, err, func(ctx context.Context) error {
			return s.update(ctx, docs.Transactions, old.ID, old, core.ErrTransactionNotFound)
		})
	}
	s.refresh(ctx, docs.Transactions, docs.Accounts)
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	m := s.b.ownerLock(s.owner)
	m.Lock()
	defer m.Unlock()

	old, err := s.freshTransaction(ctx, id)
	if err != nil {
		return err
	}
	prev, err := s.freshAccounts(ctx)
	if err != nil {
		return err
	}
	next, err := store.Rebalance(prev, &old, nil)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, docs.Transactions, id, core.ErrTransactionNotFound); err != nil {
		return err
	}
	if err := s.writeBalances(ctx, prev, next); err != nil {
		return s.compensate(ctx, id, err, func(ctx context.Context) error {
			return s.insert(ctx, docs.Transactions, old.ID, old)
		})
	}
	s.refresh(ctx, docs.Transactions, docs.Accounts)
	return nil
}

func (s *Store) findGoal(ctx context.Context, id string) (core.Goal, error) {
	goals, err := decode[core.Goal](s.fetch(ctx, docs.Goals))
	if err != nil {
		return core.Goal{}, err
	}
	i := core.FindGoal(goals, id)
	if i < 0 {
		return core.Goal{}, core.ErrGoalNotFound
	}
	return goals[i], nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g = store.PrepareNewGoal(g)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.insert(ctx, docs.Goals, g.ID, g); err != nil {
		return core.Goal{}, err
	}
	s.refresh(ctx, docs.Goals)
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	m := s.b.ownerLock(s.owner)
	m.Lock()
	defer m.Unlock()

	stored, err := s.findGoal(ctx, g.ID)
	if err != nil {
		return core.Goal{}, err
	}
	out := store.PrepareGoalUpdate(stored, g)
	if err := out.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.update(ctx, docs.Goals, out.ID, out, core.ErrGoalNotFound); err != nil {
		return core.Goal{}, err
	}
	s.refresh(ctx, docs.Goals)
	return out, nil
}

func (s *Store) SaveGoalProgress(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.update(ctx, docs.Goals, g.ID, g, core.ErrGoalNotFound); err != nil {
		return core.Goal{}, err
	}
	s.refresh(ctx, docs.Goals)
	return g, nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	if err := s.remove(ctx, docs.Goals, id, core.ErrGoalNotFound); err != nil {
		return err
	}
	s.refresh(ctx, docs.Goals)
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" || core.IsBuiltinCategory(c.ID) {
		c.ID = store.NewID()
	}
	if err := s.insert(ctx, docs.Categories, c.ID, c); err != nil {
		return core.Category{}, err
	}
	s.refresh(ctx, docs.Categories)
	return c, nil
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.ID == "" {
		a.ID = store.NewID()
	}
	a.Balance = core.Money{}
	if err := s.insert(ctx, docs.Accounts, a.ID, a); err != nil {
		return core.Account{}, err
	}
	s.refresh(ctx, docs.Accounts)
	return a, nil
}
