package enums

// InvoiceStatus is stored as reported by the gateway; it is audit data and
// deliberately not validated against a closed set.
type InvoiceStatus string

const (
	InvoiceStatusIssued   InvoiceStatus = "issued"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusExpired  InvoiceStatus = "expired"
	InvoiceStatusCaptured InvoiceStatus = "captured"
	InvoiceStatusFailed   InvoiceStatus = "failed"
)

func (s InvoiceStatus) String() string {
	return string(s)
}
