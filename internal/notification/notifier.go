package notification

import (
	"context"

	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
)

// Event is a user-facing alert derived from an audit activity. Payment,
// order creation and status changes are surfaced; everything else stays
// in the audit trail only.
type Event struct {
	Type       activitydomain.ActivityType
	Message    string
	EntityType string
	EntityID   string
	ActorName  string
}

// Notifier is a fire-and-forget sink. Implementations must never block
// the caller's transaction; failures are the caller's to log and swallow.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Wants reports whether the activity type is surfaced as a notification.
func Wants(t activitydomain.ActivityType) bool {
	switch t {
	case activitydomain.TypePayment, activitydomain.TypeOrderCreated, activitydomain.TypeStatusChange:
		return true
	}
	return false
}

type NoOpNotifier struct{}

func (NoOpNotifier) Notify(ctx context.Context, event Event) error { return nil }
