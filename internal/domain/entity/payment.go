package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the draft outbound payment handed to accounting when a request is confirmed
type Payment struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	RequestID     int64           `json:"request_id"`
	PaymentType   string          `json:"payment_type"`
	PartnerType   string          `json:"partner_type"`
	PartnerName   string          `json:"partner_name"`
	EmployeeID    string          `json:"employee_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Journal       string          `json:"journal"`
	PaymentDate   time.Time       `json:"payment_date"`
	Communication string          `json:"communication"`
	State         string          `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}
