package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const CreditCustomerIDKey = "id"

const (
	CreditSaleStatusUnpaid = "unpaid"
	CreditSaleStatusPaid   = "paid"
)

type CreditCustomerSummary struct {
	ID          any             `json:"id"`
	Name        string          `json:"name"`
	Outstanding decimal.Decimal `json:"outstanding"`
	UnpaidCount int             `json:"unpaidCount"`
}

// SummarizeCreditCustomer totals the unpaid credit sales of one customer.
// Amounts that cannot be parsed are counted as zero.
func SummarizeCreditCustomer(customer Record) CreditCustomerSummary {
	summary := CreditCustomerSummary{
		ID:          customer[CreditCustomerIDKey],
		Outstanding: decimal.Zero,
	}
	summary.Name, _ = customer["name"].(string)

	sales, _ := customer["creditSales"].([]any)
	for _, item := range sales {
		sale, ok := item.(map[string]any)
		if !ok {
			continue
		}
		status, _ := sale["status"].(string)
		if !strings.EqualFold(status, CreditSaleStatusUnpaid) {
			continue
		}
		summary.UnpaidCount++
		if amount, err := parseAmount(sale["amount"]); err == nil {
			summary.Outstanding = summary.Outstanding.Add(amount)
		}
	}
	return summary
}

func parseAmount(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	case float64:
		return decimal.NewFromFloat(t), nil
	case nil:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount %T", v)
	}
}
