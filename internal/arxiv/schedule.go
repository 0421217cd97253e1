package arxiv

import (
	"time"

	_ "time/tzdata"
)

// arXiv announces new papers at 20:00 Eastern on Sunday through Thursday;
// the submission window for each announcement closes at the 14:00 Eastern
// cutoff. All schedule math happens in Eastern time and is mapped back to
// UTC dates for querying.
var eastern = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("load America/New_York: " + err.Error())
	}
	return loc
}()

const (
	cutoffHourET   = 14
	announceHourET = 20
)

// announcementETDate maps a UTC calendar date to the Eastern date of the
// announcement that produced it: 20:00 ET is already the next day in UTC.
func announcementETDate(utcDate time.Time) time.Time {
	return utcDate.AddDate(0, 0, -1)
}

// SubmissionWindowET returns the Eastern submission window for an Eastern
// announcement date. ok is false on Friday and Saturday, when arXiv does not
// announce.
func SubmissionWindowET(announcementDate time.Time) (start, end time.Time, ok bool) {
	var startDate, endDate time.Time
	switch announcementDate.Weekday() {
	case time.Friday, time.Saturday:
		return time.Time{}, time.Time{}, false
	case time.Sunday:
		startDate = announcementDate.AddDate(0, 0, -3)
		endDate = announcementDate.AddDate(0, 0, -2)
	case time.Monday:
		startDate = announcementDate.AddDate(0, 0, -3)
		endDate = announcementDate
	default:
		startDate = announcementDate.AddDate(0, 0, -1)
		endDate = announcementDate
	}

	start = atEasternHour(startDate, cutoffHourET)
	end = atEasternHour(endDate, cutoffHourET)
	return start, end, true
}

// SubmissionWindowUTC returns the UTC submission window for a UTC
// announcement date, or ok=false when that date has no announcement.
func SubmissionWindowUTC(utcDate time.Time) (start, end time.Time, ok bool) {
	start, end, ok = SubmissionWindowET(announcementETDate(utcDate))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start.UTC(), end.UTC(), true
}

// AnnouncementTimeUTC returns when the announcement for a UTC date goes out,
// or ok=false when that date has none.
func AnnouncementTimeUTC(utcDate time.Time) (time.Time, bool) {
	etDate := announcementETDate(utcDate)
	switch etDate.Weekday() {
	case time.Friday, time.Saturday:
		return time.Time{}, false
	}
	return atEasternHour(etDate, announceHourET).UTC(), true
}

// LatestAnnouncementDate returns the most recent UTC date (YYYY-MM-DD) whose
// announcement has already gone out at the given instant. This is the default
// date for a run when none is supplied.
func LatestAnnouncementDate(now time.Time) string {
	current := now.UTC()
	candidate := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)
	for {
		if _, _, ok := SubmissionWindowUTC(candidate); !ok {
			candidate = candidate.AddDate(0, 0, -1)
			continue
		}
		release, ok := AnnouncementTimeUTC(candidate)
		if ok && !release.After(current) {
			return candidate.Format("2006-01-02")
		}
		candidate = candidate.AddDate(0, 0, -1)
	}
}

// QueryTimestamp formats an instant for arXiv query strings.
func QueryTimestamp(t time.Time) string {
	return t.UTC().Format("20060102150405")
}

func atEasternHour(d time.Time, hour int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, eastern)
}
