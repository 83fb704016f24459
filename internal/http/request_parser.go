package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"anjo/internal/core"
	"anjo/internal/services"
)

const maxBodyBytes = 1 << 20

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hex_color", func(fl validator.FieldLevel) bool {
		return hexColorRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("transaction_type", func(fl validator.FieldLevel) bool {
		return core.TransactionType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return core.PaymentMethod(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("account_type", func(fl validator.FieldLevel) bool {
		return core.AccountType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDecimalToCents(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it. It returns the
// response to send when the body is unusable, nil otherwise.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *ResponseBuilder {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return ErrorResponse(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
		case errors.Is(err, io.EOF):
			return BadRequestError("request body is required")
		}
		return BadRequestError("malformed JSON body")
	}
	if dec.More() {
		return BadRequestError("request body must contain a single JSON object")
	}
	return validateStruct(dst)
}

func validateStruct(v any) *ResponseBuilder {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return BadRequestError(err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return FieldsError(fields)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "amount":
		return "must be a positive decimal amount"
	case "date":
		return "must be formatted as YYYY-MM-DD"
	case "hex_color":
		return "must be a hex color like #10b981"
	case "transaction_type":
		return "must be income or expense"
	case "payment_method":
		return "must be cash, credit, debit or pix"
	case "account_type":
		return "must be checking, savings, investment or cash"
	}
	return "is invalid"
}

func mustCents(s string) core.Money {
	c, _ := core.ParseDecimalToCents(s)
	return core.Money{Cents: c}
}

func mustDate(s string) core.Date {
	d, _ := core.ParseDate(s)
	return d
}

// optionalCents parses an amount that may be empty or zero.
func optionalCents(s string) core.Money {
	if strings.TrimSpace(s) == "" {
		return core.Money{}
	}
	return mustCents(s)
}

// sanitizeInput removes control characters except tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type transactionRequest struct {
	Type          string `json:"type" validate:"required,transaction_type"`
	Amount        string `json:"amount" validate:"required,amount"`
	CategoryID    string `json:"categoryId" validate:"required"`
	AccountID     string `json:"accountId" validate:"required"`
	Date          string `json:"date" validate:"required,date"`
	Description   string `json:"description" validate:"max=100"`
	PaymentMethod string `json:"paymentMethod" validate:"required,payment_method"`
	GoalID        string `json:"goalId"`
}

func (t transactionRequest) input() services.TransactionInput {
	return services.TransactionInput{
		Type:          core.TransactionType(t.Type),
		Amount:        mustCents(t.Amount),
		CategoryID:    strings.TrimSpace(t.CategoryID),
		AccountID:     strings.TrimSpace(t.AccountID),
		Date:          mustDate(t.Date),
		Description:   sanitizeInput(t.Description),
		PaymentMethod: core.PaymentMethod(t.PaymentMethod),
		GoalID:        strings.TrimSpace(t.GoalID),
	}
}

type subGoalRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required,max=100"`
	TargetAmount  string `json:"targetAmount" validate:"required,amount"`
	CurrentAmount string `json:"currentAmount" validate:"omitempty,amount"`
}

type goalRequest struct {
	Name         string           `json:"name" validate:"required,max=100"`
	TargetAmount string           `json:"targetAmount" validate:"required,amount"`
	Deadline     string           `json:"deadline" validate:"omitempty,date"`
	Icon         string           `json:"icon"`
	Color        string           `json:"color" validate:"omitempty,hex_color"`
	SubGoals     []subGoalRequest `json:"subGoals" validate:"omitempty,dive"`
}

func (g goalRequest) goal(id string) core.Goal {
	out := core.Goal{
		ID:           id,
		Name:         sanitizeInput(g.Name),
		TargetAmount: mustCents(g.TargetAmount),
		Icon:         core.ParseIcon(g.Icon),
		Color:        g.Color,
	}
	if g.Deadline != "" {
		out.Deadline = mustDate(g.Deadline)
	}
	for _, sg := range g.SubGoals {
		out.SubGoals = append(out.SubGoals, core.SubGoal{
			ID:            strings.TrimSpace(sg.ID),
			Name:          sanitizeInput(sg.Name),
			TargetAmount:  mustCents(sg.TargetAmount),
			CurrentAmount: optionalCents(sg.CurrentAmount),
		})
	}
	return out
}

type depositRequest struct {
	Amount    string `json:"amount" validate:"required,amount"`
	SubGoalID string `json:"subGoalId"`
}

type categoryRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Icon  string `json:"icon"`
	Color string `json:"color" validate:"omitempty,hex_color"`
	Type  string `json:"type" validate:"required,transaction_type"`
}

func (c categoryRequest) category() core.Category {
	return core.Category{
		Name:  sanitizeInput(c.Name),
		Icon:  core.ParseIcon(c.Icon),
		Color: c.Color,
		Type:  core.TransactionType(c.Type),
	}
}

type accountRequest struct {
	ID    string `json:"id" validate:"omitempty,max=64"`
	Name  string `json:"name" validate:"required,max=50"`
	Type  string `json:"type" validate:"required,account_type"`
	Color string `json:"color" validate:"omitempty,hex_color"`
}

func (a accountRequest) account() core.Account {
	return core.Account{
		ID:    strings.TrimSpace(a.ID),
		Name:  sanitizeInput(a.Name),
		Type:  core.AccountType(a.Type),
		Color: a.Color,
	}
}

// parseFilter reads the transaction filter from the query string. month
// is 1-12 on the wire.
func parseFilter(q url.Values) (core.Filter, *ResponseBuilder) {
	f := core.Filter{
		Search:     sanitizeInput(q.Get("q")),
		CategoryID: strings.TrimSpace(q.Get("category")),
		AccountID:  strings.TrimSpace(q.Get("account")),
	}
	fields := map[string]string{}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			fields["month"] = "must be between 1 and 12"
		} else {
			m--
			f.Month = &m
		}
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			fields["year"] = "must be a valid year"
		} else {
			f.Year = &y
		}
	}
	if len(fields) > 0 {
		return core.Filter{}, FieldsError(fields)
	}
	return f, nil
}
