package models

import (
	"encoding/json"
	"fmt"
)

// SubmissionPayload is the record the form sends to the relay, keyed by payload field name
type SubmissionPayload map[string]string

// Roster holds the selectable participant names served by the upstream script.
// Order is whatever the upstream returned.
type Roster struct {
	Developers []string `json:"devs"`
	Mentors    []string `json:"mentors"`
}

type rosterPair struct {
	Devs    []string `json:"devs"`
	Mentors []string `json:"mentors"`
}

// UnmarshalJSON accepts a bare list, {"data": list}, {"devs", "mentors"}
// or {"data": {"devs", "mentors"}}.
func (r *Roster) UnmarshalJSON(body []byte) error {
	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		*r = Roster{Developers: list}
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("error parsing roster: %w", err)
	}

	if data, ok := envelope["data"]; ok {
		if err := json.Unmarshal(data, &list); err == nil {
			*r = Roster{Developers: list}
			return nil
		}
		var pair rosterPair
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("error parsing roster data: %w", err)
		}
		*r = Roster{Developers: pair.Devs, Mentors: pair.Mentors}
		return nil
	}

	var pair rosterPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return fmt.Errorf("error parsing roster: %w", err)
	}
	*r = Roster{Developers: pair.Devs, Mentors: pair.Mentors}
	return nil
}

// ErrorResponse is the body the relay returns on failure
type ErrorResponse struct {
	Error string `json:"error"`
}
