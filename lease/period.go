/*
period.go - Period and date-unit arithmetic

PURPOSE:
  Converts a period unit and an integer period offset into concrete
  due dates from the lease start, and converts elapsed time into a
  whole-period count. All month/year arithmetic is calendar-correct
  (variable month lengths via time.AddDate).

ANCHORING:
  Period 1 is due exactly on the lease start date. Period n (n > 1) is
  due at start + (n-1) units.

GRANULARITY:
  Day-or-coarser units compare calendar days (timestamps truncated to
  midnight UTC); minute/hour units compare exact elapsed time.

SEE ALSO:
  - schedule.go: Uses these helpers to materialize the schedule
*/
package lease

import "time"

// unitDuration returns the fixed length of sub-day units.
func unitDuration(u PeriodUnit) time.Duration {
	switch u {
	case UnitMinute:
		return time.Minute
	case UnitHour:
		return time.Hour
	default:
		return 0
	}
}

// AddPeriods returns t advanced by n whole units, calendar-correct for
// day-or-coarser units.
func AddPeriods(t time.Time, unit PeriodUnit, n int) time.Time {
	switch unit {
	case UnitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case UnitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, n)
	case UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case UnitMonth:
		return t.AddDate(0, n, 0)
	case UnitYear:
		return t.AddDate(n, 0, 0)
	default:
		return t
	}
}

// DueDateForPeriod returns the due date of the 1-based period number.
// Period 1 equals the start date exactly.
func DueDateForPeriod(start time.Time, unit PeriodUnit, periodNumber int) time.Time {
	if periodNumber <= 1 {
		return start
	}
	return AddPeriods(start, unit, periodNumber-1)
}

// TruncateToDay drops the time-of-day component, keeping UTC midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the calendar-day difference to - from.
// Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(TruncateToDay(to).Sub(TruncateToDay(from)).Hours() / 24)
}

// ElapsedPeriods returns the number of whole periods between start and
// now, floored and clamped to >= 0. When totalPeriods > 0 the result is
// also clamped to <= totalPeriods.
func ElapsedPeriods(start, now time.Time, unit PeriodUnit, totalPeriods int) int {
	n := wholePeriodsBetween(start, now, unit)
	if n < 0 {
		n = 0
	}
	if totalPeriods > 0 && n > totalPeriods {
		n = totalPeriods
	}
	return n
}

// wholePeriodsBetween returns the floored whole-unit count from start
// to end. Day-or-coarser units compare calendar days; sub-day units
// divide exact elapsed time by the unit length.
func wholePeriodsBetween(start, end time.Time, unit PeriodUnit) int {
	if unit.SubDay() {
		if end.Before(start) {
			return -1
		}
		return int(end.Sub(start) / unitDuration(unit))
	}

	sd, ed := TruncateToDay(start), TruncateToDay(end)
	switch unit {
	case UnitDay:
		return DaysBetween(sd, ed)
	case UnitWeek:
		d := DaysBetween(sd, ed)
		if d < 0 {
			return -1
		}
		return d / 7
	case UnitMonth, UnitYear:
		if ed.Before(sd) {
			return -1
		}
		// Estimate from the calendar distance, then adjust for variable
		// month lengths so start + n units never overshoots end.
		n := (ed.Year() - sd.Year()) * 12
		n += int(ed.Month()) - int(sd.Month())
		if unit == UnitYear {
			n = ed.Year() - sd.Year()
		}
		for n > 0 && AddPeriods(sd, unit, n).After(ed) {
			n--
		}
		for AddPeriods(sd, unit, n+1).Compare(ed) <= 0 {
			n++
		}
		return n
	default:
		return 0
	}
}

// TotalPeriods returns the total period count of the lease:
// the configured count when AutoCalcEnd is set, otherwise the unit
// count from start to end rounded up, otherwise 0 for open-ended.
func TotalPeriods(l *Lease) int {
	if l.AutoCalcEnd && l.PeriodCount != nil {
		return *l.PeriodCount
	}
	if l.EndDate == nil {
		return 0
	}
	n := wholePeriodsBetween(l.StartDate, *l.EndDate, l.PeriodUnit)
	if n < 0 {
		return 0
	}
	// Round up: a partial trailing period still bills in full.
	if endFor := AddPeriods(anchorFor(l), l.PeriodUnit, n); endFor.Before(anchorEnd(l)) {
		n++
	}
	return n
}

func anchorFor(l *Lease) time.Time {
	if l.PeriodUnit.SubDay() {
		return l.StartDate
	}
	return TruncateToDay(l.StartDate)
}

func anchorEnd(l *Lease) time.Time {
	if l.PeriodUnit.SubDay() {
		return *l.EndDate
	}
	return TruncateToDay(*l.EndDate)
}
