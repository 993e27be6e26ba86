// Package calendar renders study sessions as an iCalendar feed.
package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/dalemusser/studysync/internal/domain/models"
)

// Layouts of the stored date and time strings.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const productID = "-//StudySync//Study Sessions//EN"

// Entry is one session plus the group it belongs to.
type Entry struct {
	Session   models.StudySession
	GroupName string
}

// SessionTimes resolves a session's date and clock times in loc.
func SessionTimes(s models.StudySession, loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err = time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("session %s start: %w", s.ID.Hex(), err)
	}
	end, err = time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("session %s end: %w", s.ID.Hex(), err)
	}
	return start, end, nil
}

// UID is the stable VEVENT identifier for a session.
func UID(s models.StudySession) string { return s.ID.Hex() + "@studysync" }

// Render serializes entries as a VCALENDAR with one VEVENT per session.
// Session clock times are interpreted in loc. now stamps DTSTAMP.
func Render(name string, entries []Entry, loc *time.Location, now time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range entries {
		start, end, err := SessionTimes(e.Session, loc)
		if err != nil {
			return "", err
		}
		ev := cal.AddEvent(UID(e.Session))
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(start.UTC())
		ev.SetEndAt(end.UTC())
		ev.SetSummary(summary(e))
		if e.Session.Location != "" {
			ev.SetLocation(e.Session.Location)
		}
		if e.Session.Description != "" {
			ev.SetDescription(e.Session.Description)
		}
	}
	return cal.Serialize(), nil
}

func summary(e Entry) string {
	topic := e.Session.Topic
	if topic == "" {
		topic = "Study session"
	}
	if e.GroupName == "" {
		return topic
	}
	return topic + " (" + e.GroupName + ")"
}
