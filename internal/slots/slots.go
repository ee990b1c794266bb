// Package slots holds the shop's fixed slot catalog and the date rules for
// booking. The catalog is immutable configuration; nothing here touches the
// database.
package slots

import (
	"errors"
	"time"
)

var (
	ErrInvalidDate = errors.New("invalid date format")
	ErrInvalidTime = errors.New("invalid time format")
)

// catalog is the full set of bookable slots, hourly from noon to 9pm.
var catalog = []string{
	"12:00", "13:00", "14:00", "15:00", "16:00",
	"17:00", "18:00", "19:00", "20:00", "21:00",
}

// All returns the catalog in booking order. Callers get a copy; the catalog
// itself never changes.
func All() []string {
	out := make([]string, len(catalog))
	copy(out, catalog)
	return out
}

// IsValid reports whether value is a well-formed HH:MM string that belongs to
// the catalog.
func IsValid(value string) bool {
	if _, err := time.Parse("15:04", value); err != nil {
		return false
	}
	for _, s := range catalog {
		if s == value {
			return true
		}
	}
	return false
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// IsDatePast reports whether the date falls before today in the shop's
// timezone. Granularity is the calendar day.
func IsDatePast(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	local := now.In(loc)
	startToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return date.Before(startToday), nil
}

// IsSlotPast reports whether the slot's start time on the given date has
// already passed.
func IsSlotPast(dateStr, timeStr string, loc *time.Location, now time.Time) (bool, error) {
	if _, err := time.Parse("15:04", timeStr); err != nil {
		return false, ErrInvalidTime
	}
	if _, err := ParseDate(dateStr, loc); err != nil {
		return false, err
	}
	slot, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, loc)
	if err != nil {
		return false, ErrInvalidTime
	}
	return !slot.After(now.In(loc)), nil
}

// Subtract returns the catalog minus the booked slots, preserving catalog
// order.
func Subtract(booked map[string]bool) []string {
	free := make([]string, 0, len(catalog))
	for _, s := range catalog {
		if !booked[s] {
			free = append(free, s)
		}
	}
	return free
}
