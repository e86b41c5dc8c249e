package possync

import (
	"github.com/mmdatafocus/pos_sync/models"
)

const (
	OpNewTransaction       = "new-transaction"
	OpAddCreditCustomer    = "add-credit-customer"
	OpUpdateCreditCustomer = "update-credit-customer"
	OpAddExpense           = "add-expense"
	OpAddProduct           = "add-product"
	OpUpdateProduct        = "update-product"
	OpDeleteProduct        = "delete-product"
	OpAddUser              = "add-user"
	OpUpdateUser           = "update-user"
	OpDeleteUser           = "delete-user"
)

// Operation is one entry of a push batch queued by an offline client.
type Operation struct {
	Type string        `json:"type" validate:"required,oneof=new-transaction add-credit-customer update-credit-customer add-expense add-product update-product delete-product add-user update-user delete-user"`
	Data models.Record `json:"data" validate:"required"`
}

const (
	ResultApplied = "applied"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

const (
	ReasonUnsupported = "unsupported"
	ReasonNotFound    = "not-found"
	ReasonDuplicate   = "duplicate"
	ReasonMissingID   = "missing-id"
)

type OperationResult struct {
	Index  int    `json:"index"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type PushResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Results []OperationResult `json:"results"`
}

// Snapshot is the full state handed to a pulling client.
type Snapshot struct {
	Products        []models.Record `json:"products"`
	Users           []models.Record `json:"users"`
	Expenses        []models.Record `json:"expenses"`
	CreditCustomers []models.Record `json:"creditCustomers"`
	BusinessSetup   any             `json:"businessSetup"`
	Transactions    []models.Record `json:"transactions"`
}

type HistoryResponse struct {
	Items []models.SyncRun `json:"items"`
}

const (
	DefaultHistoryLimit = 20
)
