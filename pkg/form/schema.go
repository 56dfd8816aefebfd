package form

import (
	"fmt"
	"time"

	"pair-scheduler/pkg/models"
)

// Kind is the input control a field is rendered with
type Kind int

const (
	KindText Kind = iota
	KindEmail
	KindDate
	KindTime
	KindSelect
	KindTextArea
)

// RosterSource picks which roster list feeds a select
type RosterSource int

const (
	NoRoster RosterSource = iota
	Developers
	Mentors
)

// Derivation returns the other fields to overwrite after a field changes
type Derivation func(value string) map[string]string

// Validation reports whether value should be flagged, given every current value
type Validation func(value string, values map[string]string) bool

// Field describes one input of a form
type Field struct {
	Name       string
	PayloadKey string
	Label      string
	Kind       Kind
	Required   bool
	Roster     RosterSource
	Default    func(now time.Time) string
	Derive     Derivation
	Validate   Validation

	// Min and Max bound a time field as HH:MM. MinField takes the lower
	// bound from another field's current value instead of Min.
	Min      string
	Max      string
	MinField string
}

// Schema is an ordered set of fields making up one form
type Schema struct {
	Name   string
	Fields []Field
}

// Settings tune the email check shared by both forms
type Settings struct {
	EmailDomain string
	EmailRule   EmailRule
}

// Field looks a field up by name
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Payload maps submitted form values onto payload keys. Values are copied verbatim;
// fields absent from values are left out.
func (s *Schema) Payload(values map[string]string) models.SubmissionPayload {
	payload := models.SubmissionPayload{}
	for _, f := range s.Fields {
		if f.PayloadKey == "" {
			continue
		}
		if v, ok := values[f.Name]; ok {
			payload[f.PayloadKey] = v
		}
	}
	return payload
}

// Options renders the select options of a roster-backed field
func (s *Schema) Options(name string, roster models.Roster) []string {
	f, ok := s.Field(name)
	if !ok {
		return nil
	}
	switch f.Roster {
	case Developers:
		return Options(roster.Developers)
	case Mentors:
		return Options(roster.Mentors)
	default:
		return nil
	}
}

func static(v string) func(time.Time) string {
	return func(time.Time) string { return v }
}

func endTimeFrom(value string) map[string]string {
	end, ok := DeriveEndTime(value)
	if !ok {
		return nil
	}
	return map[string]string{"end_time": end}
}

func emailCheck(settings Settings) Validation {
	return func(value string, values map[string]string) bool {
		return IsInvalidEmail(value, values["name"], settings.EmailDomain, settings.EmailRule)
	}
}

// ScheduleSchema is the pairing-session request form
func ScheduleSchema(settings Settings) *Schema {
	return &Schema{
		Name: "schedule",
		Fields: []Field{
			{Name: "name", PayloadKey: "name", Label: "Select your name", Kind: KindSelect, Required: true, Roster: Developers},
			{Name: "email", PayloadKey: "email", Label: "Enter your Onja Mail?", Kind: KindEmail, Required: true, Validate: emailCheck(settings)},
			{Name: "date", PayloadKey: "date", Label: "Session date", Kind: KindDate, Required: true, Default: Today},
			{Name: "from_time", PayloadKey: "startTime", Label: "From", Kind: KindTime, Required: true, Default: static("02:00"), Derive: endTimeFrom, Min: "09:00", Max: "16:00"},
			{Name: "end_time", PayloadKey: "endTime", Label: "To", Kind: KindTime, Required: true, Default: static("03:00"), MinField: "from_time", Max: "16:30"},
			{Name: "goal", PayloadKey: "goal", Label: "What specific thing do you want to look into together?", Kind: KindTextArea},
		},
	}
}

// FeedbackSchema is the mentor feedback form
func FeedbackSchema(settings Settings) *Schema {
	return &Schema{
		Name: "feedback",
		Fields: []Field{
			{Name: "name", PayloadKey: "name", Label: "Select your name", Kind: KindSelect, Required: true, Roster: Developers},
			{Name: "mentor", PayloadKey: "mentor", Label: "Select your mentor", Kind: KindSelect, Roster: Mentors},
			{Name: "email", PayloadKey: "email", Label: "Enter your Onja Mail?", Kind: KindEmail, Required: true, Validate: emailCheck(settings)},
			{Name: "date", PayloadKey: "date", Label: "Session date", Kind: KindDate, Required: true, Default: Today},
			{Name: "dev_insight", PayloadKey: "devInsight", Label: "What did you learn?", Kind: KindTextArea},
			{Name: "feedback", PayloadKey: "feedback", Label: "Feedback for your mentor", Kind: KindTextArea},
		},
	}
}

// SchemaFor returns the schema of a deployment variant
func SchemaFor(variant string, settings Settings) (*Schema, error) {
	switch variant {
	case "schedule":
		return ScheduleSchema(settings), nil
	case "feedback":
		return FeedbackSchema(settings), nil
	default:
		return nil, fmt.Errorf("unknown form variant %q", variant)
	}
}
