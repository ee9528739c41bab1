package form

import "errors"

// ErrPolicyRequired is reported when the policy field is blank.
var ErrPolicyRequired = errors.New("policy id is required")

type validationError string

func (e validationError) Error() string { return string(e) }
