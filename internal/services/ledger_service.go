// Package services holds the ledger workflows: validation, persistence
// through the session's store, goal deposits, notifications and
// achievement evaluation.
package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"anjo/internal/advisor"
	"anjo/internal/core"
	"anjo/internal/log"
	"anjo/internal/notify"
	"anjo/internal/receipt"
	"anjo/internal/report"
	"anjo/internal/store"
)

// StoreResolver picks the store serving an owner; "" is the guest.
type StoreResolver interface {
	Resolve(owner string) store.LedgerStore
}

// Deps are the collaborators of a LedgerService. Emitter, Advisor and
// Scanner may be nil.
type Deps struct {
	Stores  StoreResolver
	Emitter notify.Emitter
	Advisor *advisor.Advisor
	Scanner *receipt.Scanner
	Clock   func() time.Time
	Logger  *log.Logger
}

type LedgerService struct {
	stores  StoreResolver
	emitter notify.Emitter
	advisor *advisor.Advisor
	scanner *receipt.Scanner
	now     func() time.Time
	logger  *log.Logger
	audit   *log.StructuredLogger
	states  states
}

func NewLedgerService(d Deps) *LedgerService {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	logger := d.Logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		stores:  d.Stores,
		emitter: d.Emitter,
		advisor: d.Advisor,
		scanner: d.Scanner,
		now:     d.Clock,
		logger:  logger,
		audit:   log.NewStructuredLogger(logger),
	}
}

// TransactionInput is a transaction as submitted by a user. The category
// is referenced by id and resolved to a snapshot on write.
type TransactionInput struct {
	Type          core.TransactionType
	Amount        core.Money
	CategoryID    string
	AccountID     string
	Date          core.Date
	Description   string
	PaymentMethod core.PaymentMethod
	GoalID        string
}

// TransactionResult is the outcome of AddTransaction.
type TransactionResult struct {
	Transaction  core.Transaction    `json:"transaction"`
	Deposit      *core.DepositResult `json:"deposit,omitempty"`
	Achievements []core.Achievement  `json:"achievements,omitempty"`
}

// Stats are the aggregates of a filtered transaction set.
type Stats struct {
	Count      int                   `json:"count"`
	Income     core.Money            `json:"income"`
	Expenses   core.Money            `json:"expenses"`
	Balance    core.Money            `json:"balance"`
	ByCategory []core.CategoryAmount `json:"byCategory"`
	Trend      []core.MonthTotals    `json:"trend"`
}

func (s *LedgerService) store(owner string) store.LedgerStore { return s.stores.Resolve(owner) }

func (s *LedgerService) today() core.Date { return core.DateOf(s.now()) }

func (s *LedgerService) fields(owner string) log.LogFields {
	return log.NewFields().WithOwner(owner)
}

func (s *LedgerService) emit(ctx context.Context, owner, title, message string, kind notify.Kind) {
	if s.emitter == nil {
		return
	}
	n := notify.New(owner, title, message, kind, s.now())
	if err := s.emitter.Emit(ctx, n); err != nil {
		s.audit.LogError(ctx, "Notification delivery failed", err, log.OpEmit, s.fields(owner))
	}
}

func (s *LedgerService) resolveCategory(ctx context.Context, st store.LedgerStore, id string) (core.Category, error) {
	if strings.TrimSpace(id) == "" {
		return core.Category{}, core.ErrCategoryRequired
	}
	cats, err := st.ListCategories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	c, ok := core.FindCategory(cats, id)
	if !ok {
		return core.Category{}, core.ErrCategoryNotFound
	}
	return c, nil
}

func (s *LedgerService) buildTransaction(ctx context.Context, st store.LedgerStore, id string, in TransactionInput) (core.Transaction, error) {
	t := core.Transaction{
		ID:            id,
		Type:          in.Type,
		Amount:        in.Amount,
		AccountID:     in.AccountID,
		Date:          in.Date,
		Description:   strings.TrimSpace(in.Description),
		PaymentMethod: in.PaymentMethod,
		GoalID:        in.GoalID,
	}
	if err := t.ValidateFields(); err != nil {
		return core.Transaction{}, err
	}
	c, err := s.resolveCategory(ctx, st, in.CategoryID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Category = c
	return t, t.Validate()
}

// Transactions returns the owner's transactions matching f, newest first.
func (s *LedgerService) Transactions(ctx context.Context, owner string, f core.Filter) ([]core.Transaction, error) {
	txs, err := s.store(owner).ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(txs), nil
}

// AddTransaction validates and stores a transaction. When it names a goal,
// the same amount is deposited into that goal before returning.
func (s *LedgerService) AddTransaction(ctx context.Context, owner string, in TransactionInput) (*TransactionResult, error) {
	st := s.store(owner)
	state := s.states.get(owner)
	state.mu.Lock()
	defer state.mu.Unlock()

	t, err := s.buildTransaction(ctx, st, "", in)
	if err != nil {
		s.audit.LogMutation(ctx, log.OpCreate, s.fields(owner), err)
		return nil, err
	}
	if t.GoalID != "" {
		goals, err := st.ListGoals(ctx)
		if err != nil {
			return nil, err
		}
		if core.FindGoal(goals, t.GoalID) < 0 {
			s.audit.LogMutation(ctx, log.OpCreate, s.fields(owner), core.ErrGoalNotFound)
			return nil, core.ErrGoalNotFound
		}
	}

	created, err := st.CreateTransaction(ctx, t)
	if err != nil {
		s.audit.LogMutation(ctx, log.OpCreate, s.fields(owner).WithTransaction(t), err)
		return nil, err
	}
	s.audit.LogMutation(ctx, log.OpCreate, s.fields(owner).WithTransaction(created), nil)

	res := &TransactionResult{Transaction: created}
	if created.GoalID != "" {
		dep, err := s.deposit(ctx, owner, st, created.GoalID, created.Amount, "")
		if err != nil {
			s.undoCreate(ctx, owner, st, created)
			return nil, err
		}
		res.Deposit = &dep
	}

	title := "New expense"
	if created.Type == core.Income {
		title = "New income"
	}
	desc := created.Description
	if desc == "" {
		desc = "No description"
	}
	s.emit(ctx, owner, title, fmt.Sprintf("%s: %s", desc, created.Amount), notify.KindSuccess)

	res.Achievements = s.evaluate(ctx, owner, st, state)
	return res, nil
}

// undoCreate removes a transaction whose goal deposit failed, reversing
// its balance change. It runs even when ctx is already cancelled.
func (s *LedgerService) undoCreate(ctx context.Context, owner string, st store.LedgerStore, t core.Transaction) {
	ctx = context.WithoutCancel(ctx)
	if err := st.DeleteTransaction(ctx, t.ID); err != nil {
		s.audit.LogError(ctx, "Rollback of transaction after failed deposit failed", err, log.OpDelete, s.fields(owner).WithTransaction(t))
		return
	}
	s.logger.WarnContext(ctx, "Transaction rolled back after failed goal deposit",
		log.FieldOwner, owner,
		log.FieldTransactionID, t.ID)
}

// UpdateTransaction replaces every field of transaction id.
func (s *LedgerService) UpdateTransaction(ctx context.Context, owner, id string, in TransactionInput) (core.Transaction, error) {
	st := s.store(owner)
	state := s.states.get(owner)
	state.mu.Lock()
	defer state.mu.Unlock()

	t, err := s.buildTransaction(ctx, st, id, in)
	if err != nil {
		s.audit.LogMutation(ctx, log.OpUpdate, s.fields(owner), err)
		return core.Transaction{}, err
	}
	updated, err := st.UpdateTransaction(ctx, t)
	s.audit.LogMutation(ctx, log.OpUpdate, s.fields(owner).WithTransaction(t), err)
	if err != nil {
		return core.Transaction{}, err
	}
	s.emit(ctx, owner, "Transaction updated", "Your transaction was corrected successfully.", notify.KindSuccess)
	s.evaluate(ctx, owner, st, state)
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, owner, id string) error {
	st := s.store(owner)
	state := s.states.get(owner)
	state.mu.Lock()
	defer state.mu.Unlock()

	err := st.DeleteTransaction(ctx, id)
	fields := s.fields(owner)
	fields[log.FieldTransactionID] = id
	s.audit.LogMutation(ctx, log.OpDelete, fields, err)
	return err
}

// evaluate re-runs the achievement rules and notifies every new unlock.
// Failures to load the ledger only cost a delayed unlock.
func (s *LedgerService) evaluate(ctx context.Context, owner string, st store.LedgerStore, state *AppState) []core.Achievement {
	txs, err := st.ListTransactions(ctx)
	if err != nil {
		s.audit.LogError(ctx, "Achievement evaluation skipped", err, log.OpEvaluate, s.fields(owner))
		return nil
	}
	goals, err := st.ListGoals(ctx)
	if err != nil {
		s.audit.LogError(ctx, "Achievement evaluation skipped", err, log.OpEvaluate, s.fields(owner))
		return nil
	}
	fresh := state.Achievements.Evaluate(txs, goals)
	for _, a := range fresh {
		s.logger.InfoContext(ctx, "Achievement unlocked",
			log.FieldOwner, owner,
			log.FieldAchievement, a.ID)
		s.emit(ctx, owner, "Achievement unlocked", fmt.Sprintf("%s: %s", a.Title, a.Description), notify.KindSuccess)
	}
	return fresh
}

// Achievements evaluates the current ledger and lists every achievement.
func (s *LedgerService) Achievements(ctx context.Context, owner string) []core.Achievement {
	st := s.store(owner)
	state := s.states.get(owner)
	state.mu.Lock()
	defer state.mu.Unlock()
	s.evaluate(ctx, owner, st, state)
	return state.Achievements.List()
}

func (s *LedgerService) Goals(ctx context.Context, owner string) ([]core.Goal, error) {
	return s.store(owner).ListGoals(ctx)
}

func (s *LedgerService) CreateGoal(ctx context.Context, owner string, g core.Goal) (core.Goal, error) {
	created, err := s.store(owner).CreateGoal(ctx, g)
	s.audit.LogMutation(ctx, log.OpCreate, s.fields(owner).WithGoal(created.ID, 0), err)
	if err != nil {
		return core.Goal{}, err
	}
	s.emit(ctx, owner, "Goal created", fmt.Sprintf("The goal %q was created successfully!", created.Name), notify.KindSuccess)
	return created, nil
}

func (s *LedgerService) UpdateGoal(ctx context.Context, owner string, g core.Goal) (core.Goal, error) {
	st := s.store(owner)
	state := s.states.get(owner)
	state.mu.Lock()
	defer state.mu.Unlock()

	updated, err := st.UpdateGoal(ctx, g)
	s.audit.LogMutation(ctx, log.OpUpdate, s.fields(owner).WithGoal(g.ID, updated.Progress()), err)
	if err != nil {
		return core.Goal{}, err
	}
	s.evaluate(ctx, owner, st, state)
	return updated, nil
}

// DeleteGoal removes the goal. Transactions keep their goal id.
func (s *LedgerService) DeleteGoal(ctx context.Context, owner, id string) error {
	err := s.store(owner).DeleteGoal(ctx, id)
	s.audit.LogMutation(ctx, log.OpDelete, s.fields(owner).WithGoal(id, 0), err)
	return err
}

// Deposit adds amount to a goal, or to one of its sub-goals, and notifies
// progress and every milestone crossed.
func (s *LedgerService) Deposit(ctx context.Context, owner, goalID string, amount core.Money, subGoalID string) (core.DepositResult, error) {
	st := s.store(owner)
	state := s.states.get(owner)
	state.mu.Lock()
	defer state.mu.Unlock()

	res, err := s.deposit(ctx, owner, st, goalID, amount, subGoalID)
	if err != nil {
		return core.DepositResult{}, err
	}
	s.evaluate(ctx, owner, st, state)
	return res, nil
}

// deposit must be called with the owner's AppState locked.
func (s *LedgerService) deposit(ctx context.Context, owner string, st store.LedgerStore, goalID string, amount core.Money, subGoalID string) (core.DepositResult, error) {
	if err := amount.Validate(); err != nil {
		return core.DepositResult{}, err
	}
	goals, err := st.ListGoals(ctx)
	if err != nil {
		return core.DepositResult{}, err
	}
	res, err := core.Deposit(goals, goalID, amount, subGoalID)
	if err == nil {
		_, err = st.SaveGoalProgress(ctx, res.Goal)
	}
	s.audit.LogMutation(ctx, log.OpDeposit, s.fields(owner).WithGoal(goalID, res.Current), err)
	if err != nil {
		return core.DepositResult{}, err
	}

	s.emit(ctx, owner, "Goal progress",
		fmt.Sprintf("You saved %s for %q!", amount, res.Goal.Name), notify.KindSuccess)
	for _, m := range res.Milestones {
		title, kind := "Goal milestone", notify.KindInfo
		if m == 100 {
			title, kind = "Goal reached", notify.KindSuccess
		}
		s.emit(ctx, owner, title, fmt.Sprintf("%q reached %d%% of its target.", res.Goal.Name, m), kind)
	}
	return res, nil
}

// Predict estimates when a goal will be reached.
func (s *LedgerService) Predict(ctx context.Context, owner, goalID string) (core.Prediction, error) {
	st := s.store(owner)
	goals, err := st.ListGoals(ctx)
	if err != nil {
		return core.Prediction{}, err
	}
	i := core.FindGoal(goals, goalID)
	if i < 0 {
		return core.Prediction{}, core.ErrGoalNotFound
	}
	txs, err := st.ListTransactions(ctx)
	if err != nil {
		return core.Prediction{}, err
	}
	return core.PredictCompletion(goals[i], txs, s.today()), nil
}

// Stats aggregates the transactions matching f.
func (s *LedgerService) Stats(ctx context.Context, owner string, f core.Filter) (Stats, error) {
	txs, err := s.Transactions(ctx, owner, f)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Count:      len(txs),
		Income:     core.TotalIncome(txs, ""),
		Expenses:   core.TotalExpenses(txs, ""),
		Balance:    core.Balance(txs, ""),
		ByCategory: core.ExpensesByCategory(txs, ""),
		Trend:      core.MonthlyTrend(txs),
	}, nil
}

// Summary returns the digest of the whole ledger.
func (s *LedgerService) Summary(ctx context.Context, owner string) (string, error) {
	l, err := s.store(owner).Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return core.FinancialSummary(l.Transactions, l.Goals), nil
}

// Tip asks the advisor for a tip on the owner's ledger. It falls back to
// a fixed message when the advisor is unavailable.
func (s *LedgerService) Tip(ctx context.Context, owner, name string) (string, error) {
	summary, err := s.Summary(ctx, owner)
	if err != nil {
		return "", err
	}
	return s.advisor.Tip(ctx, summary, name), nil
}

// ScanReceipt reads a receipt image into a transaction draft, matching
// its category among the owner's expense categories. A nil result means
// the receipt could not be read.
func (s *LedgerService) ScanReceipt(ctx context.Context, owner string, image []byte, mimeType string) (*receipt.Result, error) {
	cats, err := s.store(owner).ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	expense := make([]core.Category, 0, len(cats))
	for _, c := range cats {
		if c.Type == core.Expense {
			expense = append(expense, c)
		}
	}
	return s.scanner.Scan(ctx, image, mimeType, expense), nil
}

// Export writes the owner's statement as CSV.
func (s *LedgerService) Export(ctx context.Context, owner string, w io.Writer) error {
	l, err := s.store(owner).Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(w, l); err != nil {
		s.audit.LogError(ctx, "Export failed", err, log.OpExport, s.fields(owner))
		return core.ErrInternal.Wrap(err)
	}
	return nil
}

// Ledger returns the owner's whole ledger.
func (s *LedgerService) Ledger(ctx context.Context, owner string) (core.Ledger, error) {
	return s.store(owner).Snapshot(ctx)
}

func (s *LedgerService) Categories(ctx context.Context, owner string) ([]core.Category, error) {
	return s.store(owner).ListCategories(ctx)
}

func (s *LedgerService) CreateCategory(ctx context.Context, owner string, c core.Category) (core.Category, error) {
	created, err := s.store(owner).CreateCategory(ctx, c)
	fields := s.fields(owner)
	fields[log.FieldCategoryID] = created.ID
	s.audit.LogMutation(ctx, log.OpCreate, fields, err)
	return created, err
}

func (s *LedgerService) Accounts(ctx context.Context, owner string) ([]core.Account, error) {
	return s.store(owner).ListAccounts(ctx)
}

func (s *LedgerService) CreateAccount(ctx context.Context, owner string, a core.Account) (core.Account, error) {
	created, err := s.store(owner).CreateAccount(ctx, a)
	fields := s.fields(owner)
	fields[log.FieldAccountID] = created.ID
	s.audit.LogMutation(ctx, log.OpCreate, fields, err)
	return created, err
}

// Mode reports which persistence mode serves owner.
func (s *LedgerService) Mode(owner string) store.Mode {
	return s.store(owner).Mode()
}
