package models

import "time"

// Payment order statuses.
const (
	PaymentPending   = "PENDING"
	PaymentConfirmed = "CONFIRMED"
)

// PaymentOrder is a simulated MoMo order that grants Turns once confirmed.
type PaymentOrder struct {
	ID          string
	Username    string
	Turns       int
	Status      string
	PayURL      string
	CreatedAt   time.Time
	ConfirmedAt *time.Time
}
