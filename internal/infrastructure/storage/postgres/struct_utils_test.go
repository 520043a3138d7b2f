package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/ledger"
)

func TestExtractDBColumns_CreditEntry(t *testing.T) {
	cols := ExtractDBColumns[ledger.CreditEntry]()

	expected := []string{
		"id", "account_id", "amount", "currency", "concept",
		"value_date", "doc_type", "reference",
		"booking_id", "receipt_id", "investment_id", "operator_due_id",
		"created_at", "created_by",
	}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
}

func TestStructToMap_CreditEntry(t *testing.T) {
	receiptID := id.New()
	entry := ledger.CreditEntry{
		ID:        id.New(),
		AccountID: id.New(),
		Amount:    types.MustMoney("-150.25"),
		Currency:  "ARS",
		Concept:   "Ajuste",
		ValueDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		ReceiptID: &receiptID,
		CreatedBy: "user-1",
	}

	m := StructToMap(entry)

	assert.Equal(t, entry.ID, m["id"])
	assert.Equal(t, entry.AccountID, m["account_id"])
	assert.Equal(t, entry.Amount, m["amount"])
	assert.Equal(t, "ARS", m["currency"])
	assert.Equal(t, "Ajuste", m["concept"])
	assert.Equal(t, &receiptID, m["receipt_id"])
	assert.Equal(t, "user-1", m["created_by"])
}
