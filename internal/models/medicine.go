package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// MedicineType determines how the schedule evaluator interprets a medicine's alarms.
type MedicineType string

const (
	// MedicineTypeOneTime fires once at the alarm time, then the alarm is spent.
	MedicineTypeOneTime MedicineType = "one-time"
	// MedicineTypeRegular fires every day, or only on the alarm's listed weekdays.
	MedicineTypeRegular MedicineType = "regular"
	// MedicineTypeCourse fires daily within the [StartDate, EndDate] window.
	MedicineTypeCourse MedicineType = "course"
)

// DateLayout is the calendar-date format used for course start/end dates.
const DateLayout = "2006-01-02"

// weekdayNames is the accepted set of alarm day names.
var weekdayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// Alarm is a single reminder rule owned by one medicine.
type Alarm struct {
	ID   string `json:"id"`
	Time string `json:"time"` // wall-clock HH:MM, 24-hour
	// Days holds full English weekday names. Only meaningful for regular
	// medicines; empty means every day.
	Days    []string `json:"days,omitempty"`
	Enabled bool     `json:"enabled"`
}

// Medicine is one trackable medication with its reminder alarms.
type Medicine struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Dosage      string       `json:"dosage"`
	Type        MedicineType `json:"type"`
	Alarms      []Alarm      `json:"alarms"`
	Stock       int          `json:"stock"`
	StartDate   string       `json:"startDate,omitempty"` // course only, YYYY-MM-DD
	EndDate     string       `json:"endDate,omitempty"`   // course only, YYYY-MM-DD
	// NotifyDestination is the contact address for outbound reminders.
	// Empty means no automatic dispatch for this medicine.
	NotifyDestination string    `json:"notifyDestination,omitempty"`
	PhotoURL          string    `json:"photoUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewAlarm builds an alarm with a fresh ID. The time must be valid HH:MM.
func NewAlarm(timeOfDay string, days []string, enabled bool) (Alarm, error) {
	a := Alarm{
		ID:      uuid.NewString(),
		Time:    timeOfDay,
		Days:    days,
		Enabled: enabled,
	}
	if err := a.Validate(); err != nil {
		return Alarm{}, err
	}
	return a, nil
}

// NewMedicine builds a medicine with a fresh ID and creation timestamp,
// validating it before returning.
func NewMedicine(m Medicine) (Medicine, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now()
	// Absent alarms are structurally legal but must persist as an empty list,
	// not JSON null.
	if m.Alarms == nil {
		m.Alarms = []Alarm{}
	}
	if err := m.Validate(); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

// Validate checks the alarm's invariants. Invalid times are rejected, never clamped.
func (a Alarm) Validate() error {
	var result error

	if !ValidTimeOfDay(a.Time) {
		result = multierror.Append(result, fmt.Errorf("alarm time %q is not a valid 24-hour HH:MM", a.Time))
	}
	for _, d := range a.Days {
		if _, ok := weekdayNames[d]; !ok {
			result = multierror.Append(result, fmt.Errorf("unknown weekday %q", d))
		}
	}

	if result != nil {
		return fmt.Errorf("%w: %v", ErrValidation, result)
	}
	return nil
}

// Validate checks all medicine invariants and reports every violation at once.
func (m Medicine) Validate() error {
	var result error

	if m.Name == "" {
		result = multierror.Append(result, fmt.Errorf("name is required"))
	}
	if m.Stock < 0 {
		result = multierror.Append(result, fmt.Errorf("stock must not be negative"))
	}

	switch m.Type {
	case MedicineTypeOneTime, MedicineTypeRegular:
		// No extra fields required.
	case MedicineTypeCourse:
		start, startErr := time.Parse(DateLayout, m.StartDate)
		if startErr != nil {
			result = multierror.Append(result, fmt.Errorf("course start date %q is not a valid date", m.StartDate))
		}
		end, endErr := time.Parse(DateLayout, m.EndDate)
		if endErr != nil {
			result = multierror.Append(result, fmt.Errorf("course end date %q is not a valid date", m.EndDate))
		}
		if startErr == nil && endErr == nil && start.After(end) {
			result = multierror.Append(result, fmt.Errorf("course start date %s is after end date %s", m.StartDate, m.EndDate))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown medicine type %q", m.Type))
	}

	for _, a := range m.Alarms {
		if err := a.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("alarm %s: %v", a.ID, err))
		}
	}

	if result != nil {
		return fmt.Errorf("%w: %v", ErrValidation, result)
	}
	return nil
}

// ValidTimeOfDay reports whether s is a zero-padded 24-hour HH:MM string.
// Every position is checked, so padded whitespace and signs are rejected.
func ValidTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour <= 23 && minute <= 59
}

// ParseWeekday resolves a full English weekday name.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdayNames[name]
	return d, ok
}

// LowStock reports whether the remaining dose count is at or below threshold.
func (m Medicine) LowStock(threshold int) bool {
	return m.Stock <= threshold
}

// Alarm returns the alarm with the given ID, or false if the medicine has no
// such alarm.
func (m Medicine) Alarm(alarmID string) (Alarm, bool) {
	for _, a := range m.Alarms {
		if a.ID == alarmID {
			return a, true
		}
	}
	return Alarm{}, false
}
