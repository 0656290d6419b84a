package event_bus

import "github.com/shopspring/decimal"

const (
	TransactionsChanged EventType = "transaction.changed"
	BudgetUpdated       EventType = "budget.updated"
)

type ChangeKind string

const (
	ChangeAdded        ChangeKind = "added"
	ChangeEdited       ChangeKind = "edited"
	ChangeDeleted      ChangeKind = "deleted"
	ChangeMaterialized ChangeKind = "materialized"
)

type TransactionsChangedData struct {
	UserId        int
	Kind          ChangeKind
	TransactionId string
}

type BudgetUpdatedData struct {
	UserId int
	Amount decimal.Decimal
}
