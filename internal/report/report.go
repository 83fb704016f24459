// Package report renders a ledger as a flat statement: one row per
// transaction, newest first, followed by the balance.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"anjo/internal/core"
)

var header = []string{"Data", "Descrição", "Categoria", "Tipo", "Pagamento", "Conta", "Valor"}

// BalanceLabel starts the last row of a statement.
const BalanceLabel = "Saldo"

// Rows returns the statement rows of l without the header. Amounts are
// signed; the last row carries the balance over every account.
func Rows(l core.Ledger) [][]string {
	accounts := make(map[string]string, len(l.Accounts))
	for _, a := range l.Accounts {
		accounts[a.ID] = a.Name
	}
	rows := make([][]string, 0, len(l.Transactions)+1)
	for _, t := range l.Transactions {
		account := accounts[t.AccountID]
		if account == "" {
			account = t.AccountID
		}
		rows = append(rows, []string{
			t.Date.String(),
			t.Description,
			t.Category.Name,
			typeLabel(t.Type),
			t.PaymentMethod.Label(),
			account,
			t.Signed().String(),
		})
	}
	rows = append(rows, []string{BalanceLabel, "", "", "", "", "", core.Balance(l.Transactions, "").String()})
	return rows
}

func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Receita"
	}
	return "Despesa"
}

// WriteCSV writes the statement of l, header included.
func WriteCSV(w io.Writer, l core.Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(Rows(l)); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
