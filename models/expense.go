package models

// NormalizeExpense copies the legacy "cashier" field into "recordedBy".
func NormalizeExpense(data Record) Record {
	expense := data.Clone()
	if expense.Truthy("cashier") && !expense.Truthy("recordedBy") {
		expense["recordedBy"] = expense["cashier"]
	}
	return expense
}

// Prepend returns list with rec at the head. Transactions and expenses are
// stored newest first.
func Prepend(list []Record, rec Record) []Record {
	out := make([]Record, 0, len(list)+1)
	out = append(out, rec)
	return append(out, list...)
}
