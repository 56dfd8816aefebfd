package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Placeholder is the synthetic first option of every roster select
const Placeholder = "Select an option"

// DateLayout is the DD-MM-YYYY layout used for the default date
const DateLayout = "02-01-2006"

// EmailRule decides how the domain and name checks combine
type EmailRule int

const (
	// RequireAll accepts an email only if it has the domain and the selected name
	RequireAll EmailRule = iota
	// RequireAny accepts an email that has either the domain or the selected name
	RequireAny
)

// ParseEmailRule maps the config values "all" and "any" to a rule
func ParseEmailRule(s string) (EmailRule, error) {
	switch s {
	case "", "all":
		return RequireAll, nil
	case "any":
		return RequireAny, nil
	default:
		return RequireAll, fmt.Errorf("unknown email rule %q", s)
	}
}

func (r EmailRule) String() string {
	if r == RequireAny {
		return "any"
	}
	return "all"
}

// DeriveEndTime returns HH:MM one hour after from. Hours are not wrapped,
// so 23:05 becomes 24:05. ok is false when from has no colon or a non-numeric hour.
func DeriveEndTime(from string) (end string, ok bool) {
	hours, rest, found := strings.Cut(from, ":")
	if !found {
		return "", false
	}
	// seconds, if the input carries them, are dropped
	minutes, _, _ := strings.Cut(rest, ":")
	h, err := strconv.Atoi(hours)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d:%s", h+1, minutes), true
}

// ParseClock reads H:MM or HH:MM (seconds ignored) as minutes past midnight
func ParseClock(value string) (int, bool) {
	hours, rest, found := strings.Cut(value, ":")
	if !found {
		return 0, false
	}
	minutes, _, _ := strings.Cut(rest, ":")
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 || len(minutes) != 2 {
		return 0, false
	}
	return h*60 + m, true
}

// IsInvalidEmail reports whether email should be flagged for the selected name.
// An empty email is never flagged. The check is a substring heuristic, not an address parse.
func IsInvalidEmail(email, name, domain string, rule EmailRule) bool {
	if email == "" {
		return false
	}
	hasDomain := strings.Contains(email, domain)
	hasName := strings.Contains(email, strings.ToLower(name))
	if rule == RequireAny {
		return !hasDomain && !hasName
	}
	return !hasDomain || !hasName
}

// Today formats now as DD-MM-YYYY
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Options lists the selectable names with the placeholder first
func Options(names []string) []string {
	options := make([]string, 0, len(names)+1)
	options = append(options, Placeholder)
	return append(options, names...)
}
