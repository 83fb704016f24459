package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anjo/internal/core"
)

func TestParseFilter(t *testing.T) {
	f, resp := parseFilter(url.Values{
		"q":        {"  mercado\x07 "},
		"month":    {"1"},
		"year":     {"2025"},
		"category": {"1"},
		"account":  {"default"},
	})
	require.Nil(t, resp)
	assert.Equal(t, "mercado", f.Search)
	require.NotNil(t, f.Month)
	assert.Equal(t, 0, *f.Month, "month is 1-based on the wire and 0-based in the filter")
	require.NotNil(t, f.Year)
	assert.Equal(t, 2025, *f.Year)
	assert.Equal(t, "1", f.CategoryID)
	assert.Equal(t, "default", f.AccountID)

	f, resp = parseFilter(url.Values{})
	require.Nil(t, resp)
	assert.True(t, f.IsZero())

	_, resp = parseFilter(url.Values{"month": {"0"}, "year": {"abc"}})
	require.NotNil(t, resp)
	assert.Equal(t, 422, resp.statusCode)
	body := resp.body.(errorBody)
	assert.Contains(t, body.Error.Fields, "month")
	assert.Contains(t, body.Error.Fields, "year")
}

func TestTransactionRequestInput(t *testing.T) {
	req := transactionRequest{
		Type:          "income",
		Amount:        "1234,5",
		CategoryID:    " 9 ",
		AccountID:     "default",
		Date:          "2025-06-01",
		Description:   " Salário\x00 ",
		PaymentMethod: "pix",
	}
	require.Nil(t, validateStruct(&req))

	in := req.input()
	assert.Equal(t, core.Income, in.Type)
	assert.Equal(t, "9", in.CategoryID)
	assert.Equal(t, "Salário", in.Description)
	assert.Equal(t, core.NewDate(2025, 6, 1), in.Date)
	assert.Equal(t, core.PaymentPix, in.PaymentMethod)
}

func TestGoalRequestConversion(t *testing.T) {
	req := goalRequest{
		Name:         "Reserva",
		TargetAmount: "5000",
		Icon:         "PiggyBank",
		Color:        "#10b981",
		SubGoals: []subGoalRequest{
			{ID: "sg1", Name: "Primeiro mês", TargetAmount: "1000", CurrentAmount: "250.50"},
			{Name: "Segundo mês", TargetAmount: "1000"},
		},
	}
	require.Nil(t, validateStruct(&req))

	g := req.goal("g1")
	assert.Equal(t, "g1", g.ID)
	assert.Equal(t, int64(500000), g.TargetAmount.Cents)
	assert.True(t, g.Deadline.IsZero())
	assert.Equal(t, core.IconPiggyBank, g.Icon)
	require.Len(t, g.SubGoals, 2)
	assert.Equal(t, int64(25050), g.SubGoals[0].CurrentAmount.Cents)
	assert.Zero(t, g.SubGoals[1].CurrentAmount.Cents)
}

func TestValidatorRules(t *testing.T) {
	tests := []struct {
		name  string
		v     any
		field string
	}{
		{"hex color", &categoryRequest{Name: "X", Type: "expense", Color: "red"}, "color"},
		{"category type", &categoryRequest{Name: "X", Type: "both"}, "type"},
		{"account type", &accountRequest{Name: "X", Type: "crypto"}, "type"},
		{"payment method", &transactionRequest{Type: "expense", Amount: "1", CategoryID: "1", AccountID: "a", Date: "2025-01-01", PaymentMethod: "boleto"}, "paymentMethod"},
		{"deposit amount", &depositRequest{Amount: "1.2.3"}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := validateStruct(tt.v)
			require.NotNil(t, resp)
			assert.Contains(t, resp.body.(errorBody).Error.Fields, tt.field)
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb\nc", sanitizeInput("  a\tb\nc\x1b "))
	assert.Equal(t, "", sanitizeInput("   "))
}
