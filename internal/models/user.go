package models

import "time"

// User represents a user in the database.
// DeliveryHour and DeliveryMinute are stored in UTC.
type User struct {
	ID             int64     `db:"user_id"`
	Handle         string    `db:"handle"`
	DeliveryHour   int       `db:"delivery_hour"`
	DeliveryMinute int       `db:"delivery_minute"`
	CreatedAt      time.Time `db:"created_at"`
}

func (u User) DeliveryTime() DeliveryTime {
	return DeliveryTime{Hour: u.DeliveryHour, Minute: u.DeliveryMinute}
}
