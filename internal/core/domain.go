package core

import (
	"strings"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentPix    PaymentMethod = "pix"
)

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
)

// MaxDescriptionLength bounds Transaction.Description, counted in runes.
const MaxDescriptionLength = 100

type (
	TransactionType string
	PaymentMethod   string
	AccountType     string

	Category struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Icon  Icon            `json:"icon"`
		Color string          `json:"color"`
		Type  TransactionType `json:"type"`
	}

	Account struct {
		ID      string      `json:"id"`
		Name    string      `json:"name"`
		Type    AccountType `json:"type"`
		Color   string      `json:"color"`
		Balance Money       `json:"balance"`
	}

	// Transaction carries a frozen copy of its category taken at creation
	// time. Filtering by category still goes through Category.ID.
	Transaction struct {
		ID            string          `json:"id"`
		Type          TransactionType `json:"type"`
		Amount        Money           `json:"amount"`
		Category      Category        `json:"category"`
		AccountID     string          `json:"accountId"`
		Date          Date            `json:"date"`
		Description   string          `json:"description,omitempty"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		GoalID        string          `json:"goalId,omitempty"`
	}

	SubGoal struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
		IsCompleted   bool   `json:"isCompleted"`
	}

	Goal struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		TargetAmount  Money     `json:"targetAmount"`
		CurrentAmount Money     `json:"currentAmount"`
		Deadline      Date      `json:"deadline"`
		Icon          Icon      `json:"icon"`
		Color         string    `json:"color"`
		SubGoals      []SubGoal `json:"subGoals"`
	}

	// Ledger is the full data set owned by one user.
	Ledger struct {
		Transactions []Transaction `json:"transactions"`
		Goals        []Goal        `json:"goals"`
		Categories   []Category    `json:"categories"`
		Accounts     []Account     `json:"accounts"`
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCredit, PaymentDebit, PaymentPix:
		return true
	}
	return false
}

// Label returns the display name of the payment method.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentPix:
		return "PIX"
	case PaymentCredit:
		return "Crédito"
	case PaymentDebit:
		return "Débito"
	case PaymentCash:
		return "Dinheiro"
	}
	return string(p)
}

func (a AccountType) Valid() bool {
	switch a {
	case AccountChecking, AccountSavings, AccountInvestment, AccountCash:
		return true
	}
	return false
}

// Signed returns the amount with the sign it contributes to an account
// balance: positive for income, negative for expenses.
func (t Transaction) Signed() Money {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

func (t Transaction) Validate() error {
	if err := t.ValidateFields(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category.ID) == "" {
		return ErrCategoryRequired
	}
	if t.Category.Type != t.Type {
		return ErrCategoryTypeMismatch
	}
	return nil
}

// ValidateFields checks everything except the embedded category, which
// needs a catalogue lookup first.
func (t Transaction) ValidateFields() error {
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrAccountRequired
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !t.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidTransactionType
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 || g.CurrentAmount.Cents > g.TargetAmount.Cents {
		return ErrInvalidAmount.WithMessage("current amount must be between zero and the target")
	}
	for _, sg := range g.SubGoals {
		if strings.TrimSpace(sg.Name) == "" {
			return ErrEmptyName.WithMessage("sub-goal name cannot be empty")
		}
		if err := sg.TargetAmount.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Complete reports whether the goal reached its target.
func (g Goal) Complete() bool {
	return g.CurrentAmount.Cents >= g.TargetAmount.Cents
}

// Progress returns the completion percentage of the goal.
func (g Goal) Progress() float64 {
	return percent(g.CurrentAmount, g.TargetAmount)
}

// Remaining returns how much is still missing to reach the target.
func (g Goal) Remaining() Money {
	if g.Complete() {
		return Money{}
	}
	return g.TargetAmount.Sub(g.CurrentAmount)
}

// Clone returns a deep copy of the goal.
func (g Goal) Clone() Goal {
	out := g
	if g.SubGoals != nil {
		out.SubGoals = make([]SubGoal, len(g.SubGoals))
		copy(out.SubGoals, g.SubGoals)
	}
	return out
}

func percent(current, target Money) float64 {
	if target.Cents <= 0 {
		return 0
	}
	return float64(current.Cents) * 100 / float64(target.Cents)
}

// FindAccount returns the index of the account with the given id, or -1.
func FindAccount(accounts []Account, id string) int {
	for i := range accounts {
		if accounts[i].ID == id {
			return i
		}
	}
	return -1
}

// FindGoal returns the index of the goal with the given id, or -1.
func FindGoal(goals []Goal, id string) int {
	for i := range goals {
		if goals[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTransaction returns the index of the transaction with the given id, or -1.
func FindTransaction(txs []Transaction, id string) int {
	for i := range txs {
		if txs[i].ID == id {
			return i
		}
	}
	return -1
}
