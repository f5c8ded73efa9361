package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDeliveryTime = errors.New("invalid delivery time")

// DeliveryTime is a wall clock hour and minute.
type DeliveryTime struct {
	Hour   int
	Minute int
}

// DefaultDeliveryTime is assigned to newly registered users.
var DefaultDeliveryTime = DeliveryTime{Hour: 9, Minute: 0}

func NewDeliveryTime(hour, minute int) (DeliveryTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return DeliveryTime{}, fmt.Errorf("%w: %d:%02d", ErrInvalidDeliveryTime, hour, minute)
	}
	return DeliveryTime{Hour: hour, Minute: minute}, nil
}

// ParseDeliveryTime parses "HH:MM" or "H:MM".
func ParseDeliveryTime(s string) (DeliveryTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || !isDigits(h, 1, 2) || !isDigits(m, 2, 2) {
		return DeliveryTime{}, fmt.Errorf("%w: %q", ErrInvalidDeliveryTime, s)
	}
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	return NewDeliveryTime(hour, minute)
}

func isDigits(s string, minLen, maxLen int) bool {
	if len(s) < minLen || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (d DeliveryTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// ToUTC converts a time entered in loc to UTC, using the offset loc has on ref's date.
func (d DeliveryTime) ToUTC(loc *time.Location, ref time.Time) DeliveryTime {
	ref = ref.In(loc)
	t := time.Date(ref.Year(), ref.Month(), ref.Day(), d.Hour, d.Minute, 0, 0, loc).UTC()
	return DeliveryTime{Hour: t.Hour(), Minute: t.Minute()}
}

// In converts a stored UTC time for display in loc.
func (d DeliveryTime) In(loc *time.Location, ref time.Time) DeliveryTime {
	ref = ref.UTC()
	t := time.Date(ref.Year(), ref.Month(), ref.Day(), d.Hour, d.Minute, 0, 0, time.UTC).In(loc)
	return DeliveryTime{Hour: t.Hour(), Minute: t.Minute()}
}

// DeliveryTimeOf returns the UTC minute t falls into.
func DeliveryTimeOf(t time.Time) DeliveryTime {
	t = t.UTC()
	return DeliveryTime{Hour: t.Hour(), Minute: t.Minute()}
}
