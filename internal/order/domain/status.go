package domain

import "github.com/kudamusaisiwa/royalprecast/internal/identity"

// OrderStatus is the order's position in the manufacturing pipeline.
// Paid is an overlay checkpoint reachable from any earlier state, not a
// step in the linear progression.
type OrderStatus string

const (
	StatusQuotation      OrderStatus = "quotation"
	StatusProduction     OrderStatus = "production"
	StatusQualityControl OrderStatus = "quality_control"
	StatusDispatch       OrderStatus = "dispatch"
	StatusInstallation   OrderStatus = "installation"
	StatusCompleted      OrderStatus = "completed"
	StatusPaid           OrderStatus = "paid"
)

var allStatuses = []OrderStatus{
	StatusQuotation,
	StatusProduction,
	StatusQualityControl,
	StatusDispatch,
	StatusInstallation,
	StatusCompleted,
	StatusPaid,
}

// Statuses returns every recognized order status.
func Statuses() []OrderStatus {
	out := make([]OrderStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Valid reports whether s is a recognized order status.
func (s OrderStatus) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// TouchesPaid reports whether a transition either leaves or enters the
// paid checkpoint. Such moves carry financial meaning and require both
// an elevated role and an explicit acknowledgment from the caller.
func TouchesPaid(from, to OrderStatus) bool {
	return from == StatusPaid || to == StatusPaid
}

// CanTransition decides whether role may move an order from one status
// to another. Transitions touching the paid checkpoint are restricted
// to admin, manager and finance; everything else is open to any
// authenticated role. Pure function, no side effects.
func CanTransition(from, to OrderStatus, role identity.Role) bool {
	if !TouchesPaid(from, to) {
		return true
	}
	switch role {
	case identity.RoleAdmin, identity.RoleManager, identity.RoleFinance:
		return true
	default:
		return false
	}
}
