package model

import "time"

// Notification kind constants
const (
	NotifKindMealReminder  = "meal_reminder"
	NotifKindWaterReminder = "water_reminder"
	NotifKindTest          = "test"
)

// PushSubscription is one browser/device endpoint registered by a user.
// P256dhKey decodes to a 65-byte uncompressed P-256 point and AuthSecret
// to 16 bytes; both are validated before any send.
type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthSecret string    `json:"auth_secret"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
