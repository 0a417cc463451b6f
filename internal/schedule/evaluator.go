// Package schedule holds the pure, time-parameterized alarm evaluation logic.
// Nothing here touches storage or the clock; callers pass the reference instant.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/medibuddy/medibuddy/internal/models"
)

// IsLive reports whether the alarm is applicable on the given date,
// independent of exact time-of-day match. Disabled alarms are never live.
// Course medicines are live only within [StartDate, EndDate] inclusive;
// regular medicines with a non-empty day list only on those weekdays.
func IsLive(m models.Medicine, a models.Alarm, now time.Time) bool {
	if !a.Enabled {
		return false
	}

	switch m.Type {
	case models.MedicineTypeCourse:
		start, err := time.Parse(models.DateLayout, m.StartDate)
		if err != nil {
			return false
		}
		end, err := time.Parse(models.DateLayout, m.EndDate)
		if err != nil {
			return false
		}
		today, _ := time.Parse(models.DateLayout, now.Format(models.DateLayout))
		if today.Before(start) || today.After(end) {
			return false
		}
	case models.MedicineTypeRegular:
		if len(a.Days) > 0 && !matchesWeekday(a.Days, now.Weekday()) {
			return false
		}
	}

	return true
}

// IsDueNow reports whether the alarm is live and its time matches now,
// truncated to the minute. The match is an exact HH:MM equality, not a range;
// the poll loop's cadence is responsible for observing every minute.
func IsDueNow(m models.Medicine, a models.Alarm, now time.Time) bool {
	return IsLive(m, a, now) && a.Time == now.Format("15:04")
}

// MinuteKey renders the instant truncated to the minute, used to deduplicate
// dispatches within a single wall-clock minute.
func MinuteKey(now time.Time) string {
	return now.Format("2006-01-02 15:04")
}

func matchesWeekday(days []string, weekday time.Weekday) bool {
	for _, name := range days {
		if d, ok := models.ParseWeekday(name); ok && d == weekday {
			return true
		}
	}
	return false
}

// Describe renders a human-readable schedule summary for a medicine. Only the
// first alarm is rendered even when several exist; this mirrors how schedules
// have always been shown to users.
func Describe(m models.Medicine) string {
	switch m.Type {
	case models.MedicineTypeOneTime:
		if len(m.Alarms) == 0 {
			return "One time on schedule not set"
		}
		return fmt.Sprintf("One time on %s", m.Alarms[0].Time)
	case models.MedicineTypeRegular:
		if len(m.Alarms) == 0 {
			return "Schedule not set"
		}
		first := m.Alarms[0]
		days := "every day"
		if len(first.Days) > 0 {
			days = strings.Join(first.Days, ", ")
		}
		return fmt.Sprintf("%s on %s", first.Time, days)
	case models.MedicineTypeCourse:
		start := "undefined start"
		if m.StartDate != "" {
			start = m.StartDate
		}
		end := "undefined end"
		if m.EndDate != "" {
			end = m.EndDate
		}
		return fmt.Sprintf("Course: %s to %s", start, end)
	}
	return "Schedule not set"
}

// FormatTime renders an HH:MM string as 12-hour time with an AM/PM suffix.
// Unparseable input is returned unchanged.
func FormatTime(timeOfDay string) string {
	parts := strings.SplitN(timeOfDay, ":", 2)
	if len(parts) != 2 {
		return timeOfDay
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return timeOfDay
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%s %s", hour12, parts[1], suffix)
}

// AlarmEntry pairs an alarm with its owning medicine for list views.
type AlarmEntry struct {
	Medicine models.Medicine `json:"medicine"`
	Alarm    models.Alarm    `json:"alarm"`
}

// SortAlarms flattens all alarms across medicines and orders them ascending by
// time-of-day. Lexicographic ordering is correct because the format is
// fixed-width zero-padded HH:MM; ties break on medicine name.
func SortAlarms(medicines []models.Medicine) []AlarmEntry {
	entries := make([]AlarmEntry, 0)
	for _, m := range medicines {
		for _, a := range m.Alarms {
			entries = append(entries, AlarmEntry{Medicine: m, Alarm: a})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Alarm.Time != entries[j].Alarm.Time {
			return entries[i].Alarm.Time < entries[j].Alarm.Time
		}
		return entries[i].Medicine.Name < entries[j].Medicine.Name
	})
	return entries
}
