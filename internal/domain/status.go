package domain

// PaymentStatus classifies a violation by how much of the amount due was paid.
// It is always derived from the amounts and never stored.
type PaymentStatus string

const (
	StatusOutstanding PaymentStatus = "outstanding"
	StatusPartial     PaymentStatus = "partial"
	StatusPaid        PaymentStatus = "paid"
)

// StatusOf derives the payment status of a violation:
//   - paid: nothing is due, or the payment covers the amount due
//   - partial: something was paid, but less than the amount due
//   - outstanding: everything else
func StatusOf(v Violation) PaymentStatus {
	due := v.AmountDue.Float()
	paid := v.PaymentAmount.Float()
	switch {
	case due == 0 || paid >= due:
		return StatusPaid
	case paid > 0:
		return StatusPartial
	default:
		return StatusOutstanding
	}
}

// severity orders statuses for sorting: outstanding < partial < paid.
func (s PaymentStatus) severity() int {
	switch s {
	case StatusOutstanding:
		return 0
	case StatusPartial:
		return 1
	default:
		return 2
	}
}

// Label returns the display label for the status.
func (s PaymentStatus) Label() string {
	switch s {
	case StatusOutstanding:
		return "Outstanding"
	case StatusPartial:
		return "Partially Paid"
	case StatusPaid:
		return "Paid"
	default:
		return string(s)
	}
}
