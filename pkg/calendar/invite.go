package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"pair-scheduler/pkg/models"
	"pair-scheduler/pkg/utils"
)

var ErrIncompletePayload = errors.New("payload has no date or time window")

// dateLayouts are the DD-MM-YYYY default and the native date input format
var dateLayouts = []string{"02-01-2006", "2006-01-02"}

// Organizer is who hosts the pairing session
type Organizer struct {
	Name  string
	Email string
}

// Invite renders a scheduling payload as a one-event iCalendar document.
// Times are read as wall clock in loc.
func Invite(payload models.SubmissionPayload, organizer Organizer, loc *time.Location, now time.Time) (string, error) {
	date, startTime, endTime := payload["date"], payload["startTime"], payload["endTime"]
	if date == "" || startTime == "" || endTime == "" {
		return "", ErrIncompletePayload
	}

	day, err := parseDate(date, loc)
	if err != nil {
		return "", err
	}
	start, err := atClock(day, startTime)
	if err != nil {
		return "", fmt.Errorf("invalid start time: %w", err)
	}
	end, err := atClock(day, endTime)
	if err != nil {
		return "", fmt.Errorf("invalid end time: %w", err)
	}
	if !end.After(start) {
		return "", fmt.Errorf("end time %s is not after start time %s", endTime, startTime)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId("-//pair-scheduler//pairing session//EN")

	event := cal.AddEvent(utils.Fingerprint(payload["name"], date, startTime) + "@pair-scheduler")
	event.SetDtStampTime(now)
	event.SetCreatedTime(now)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(fmt.Sprintf("Pair programming: %s and %s", payload["name"], organizer.Name))
	if goal := strings.TrimSpace(payload["goal"]); goal != "" {
		event.SetDescription(goal)
	}
	if organizer.Email != "" {
		event.SetOrganizer("mailto:"+organizer.Email, ics.WithCN(organizer.Name))
	}
	if email := payload["email"]; email != "" {
		event.AddAttendee("mailto:"+email,
			ics.WithCN(payload["name"]),
			ics.ParticipationRoleReqParticipant,
			ics.ParticipationStatusNeedsAction,
			ics.WithRSVP(true),
		)
	}

	return cal.Serialize(), nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// atClock places HH:MM on day. Hour 24 lands on the following day.
func atClock(day time.Time, clock string) (time.Time, error) {
	hours, minutes, found := strings.Cut(clock, ":")
	if !found {
		return time.Time{}, fmt.Errorf("%q is not HH:MM", clock)
	}
	minutes, _, _ = strings.Cut(minutes, ":")
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 24 {
		return time.Time{}, fmt.Errorf("%q has an invalid hour", clock)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("%q has invalid minutes", clock)
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}
