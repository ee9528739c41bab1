// Package validate provides the field validators used by the lookup form.
package validate

import (
	"errors"
	"regexp"
	"time"

	"github.com/hay-kot/criterio"
)

// DateLayout is the only accepted date format, YYYY-MM-DD.
const DateLayout = "2006-01-02"

// Messages shown next to an invalid field.
const (
	PolicyIDMessage = "must be numeric existing policy id!"
	DateMessage     = "must be date like YYYY-MM-DD !"
)

var (
	ErrPolicyID = errors.New(PolicyIDMessage)
	ErrDate     = errors.New(DateMessage)
)

var (
	policyIDPattern = regexp.MustCompile(`^[0-9]*$`)
	policyIDMatch   = criterio.StrMatches(policyIDPattern)
)

// PolicyID accepts the empty string or a run of ASCII digits. Emptiness is
// checked separately by the form's aggregate validity.
func PolicyID(value string) error {
	if err := policyIDMatch(value); err != nil {
		return ErrPolicyID
	}
	return nil
}

// Date accepts a real calendar date in strict YYYY-MM-DD form. Month and
// day must be zero padded; out of range days (2023-02-29) are rejected.
func Date(value string) error {
	if len(value) != len(DateLayout) {
		return ErrDate
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return ErrDate
	}
	return nil
}

// FormatDate formats t the way Date expects.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
