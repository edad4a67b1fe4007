package subscriptions

import (
	"encoding/json"
	"strconv"
)

// Notes is the free-form key/value bag Razorpay attaches to entities. The
// gateway serializes an empty bag as a JSON array, and values may arrive as
// numbers, so decoding has to tolerate both shapes.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*n = nil
		return nil
	}

	// Empty notes come through as [].
	var asArray []any
	if err := json.Unmarshal(data, &asArray); err == nil {
		*n = Notes{}
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Notes, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			out[key] = v
		case float64:
			out[key] = trimFloat(v)
		case bool:
			if v {
				out[key] = "true"
			} else {
				out[key] = "false"
			}
		default:
			// nested objects are not note values we ever read
		}
	}
	*n = out
	return nil
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RazorpaySubscription mirrors the gateway's subscription entity.
type RazorpaySubscription struct {
	ID           string `json:"id"`
	PlanID       string `json:"plan_id"`
	Status       string `json:"status"`
	Quantity     int    `json:"quantity"`
	TotalCount   int    `json:"total_count"`
	PaidCount    int    `json:"paid_count"`
	StartAt      int64  `json:"start_at"`
	EndAt        int64  `json:"end_at"`
	CurrentStart int64  `json:"current_start"`
	CurrentEnd   int64  `json:"current_end"`
	ChargeAt     int64  `json:"charge_at"`
	Notes        Notes  `json:"notes"`
}

// RazorpayInvoice mirrors the gateway's invoice entity. Amount is in paise.
type RazorpayInvoice struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id"`
	PaymentID      string `json:"payment_id"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PaidAt         int64  `json:"paid_at"`
	Notes          Notes  `json:"notes"`
}

// RazorpayPayment mirrors the gateway's payment entity. Amount is in paise.
type RazorpayPayment struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	CreatedAt int64  `json:"created_at"`
	Notes     Notes  `json:"notes"`
}
