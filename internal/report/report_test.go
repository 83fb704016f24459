package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"anjo/internal/core"
)

func TestWriteCSV(t *testing.T) {
	salary, _ := core.FindCategory(core.BuiltinCategories(), "9")
	food, _ := core.FindCategory(core.BuiltinCategories(), "1")
	l := core.Ledger{
		Accounts: []core.Account{core.DefaultAccount()},
		Transactions: []core.Transaction{
			{Type: core.Expense, Amount: core.Cents(1250), Category: food, AccountID: core.DefaultAccountID,
				Date: core.NewDate(2025, 4, 2), Description: "Feira, orgânicos", PaymentMethod: core.PaymentPix},
			{Type: core.Income, Amount: core.Cents(350000), Category: salary, AccountID: "gone",
				Date: core.NewDate(2025, 4, 1), Description: "Salário", PaymentMethod: core.PaymentDebit},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, l); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want header + 2 rows + balance", len(records))
	}

	first := records[1]
	if first[0] != "2025-04-02" || first[1] != "Feira, orgânicos" || first[5] != "Carteira Offline" || first[6] != "-R$ 12,50" {
		t.Fatalf("unexpected first row %q", first)
	}
	if records[2][5] != "gone" {
		t.Fatalf("unknown account should fall back to its id, got %q", records[2][5])
	}
	last := records[3]
	if last[0] != BalanceLabel || last[6] != "R$ 3.487,50" {
		t.Fatalf("unexpected balance row %q", last)
	}
}

func TestRowsEmptyLedger(t *testing.T) {
	rows := Rows(core.Ledger{})
	if len(rows) != 1 || rows[0][6] != "R$ 0,00" {
		t.Fatalf("unexpected rows %q", rows)
	}
}
