package domain

import "time"

// NotificationCategory classifies a notification for display purposes.
type NotificationCategory string

const (
	CategoryStock  NotificationCategory = "stock"
	CategoryOrder  NotificationCategory = "order"
	CategorySystem NotificationCategory = "system"
)

// Notification is one entry in the notification tray. IDs are assigned by
// the store from a monotonic counter, so generation order and id order
// always agree.
type Notification struct {
	ID        int64                `json:"id"`
	Message   string               `json:"message"`
	Category  NotificationCategory `json:"category"`
	CreatedAt time.Time            `json:"created_at"`
	Read      bool                 `json:"read"`
}
