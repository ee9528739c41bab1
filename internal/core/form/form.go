// Package form holds the lookup form state: the policy and date fields,
// their validation results, and the aggregate ok flag that gates submit.
package form

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/policyview/internal/core/validate"
)

// Field names used in FieldErrors and VisibleError.
const (
	FieldPolicy = "policy"
	FieldDateTo = "date_to"
)

// Validator maps a raw input to nil or an error whose message is shown
// next to the field.
type Validator func(string) error

// FieldState is the value and validation result of a single field.
type FieldState struct {
	Value   string
	Valid   bool
	Error   string
	Touched bool
}

// State is a snapshot of the whole form.
type State struct {
	Policy FieldState
	DateTo FieldState
	OK     bool
}

// Listener is called after every mutation with the new state.
type Listener func(State)

// Submitter receives validated values on Submit.
type Submitter interface {
	Submit(ctx context.Context, policy, dateTo string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for the default date.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithSubmitter sets the target for Submit.
func WithSubmitter(s Submitter) Option {
	return func(c *Controller) { c.submitter = s }
}

// WithPolicyValidator replaces the policy validator.
func WithPolicyValidator(v Validator) Option {
	return func(c *Controller) { c.policyValidator = v }
}

// WithDateValidator replaces the date validator.
func WithDateValidator(v Validator) Option {
	return func(c *Controller) { c.dateValidator = v }
}

// Controller owns the form state for one session. It is safe for
// concurrent use; listeners run outside the lock.
type Controller struct {
	mu     sync.Mutex
	policy FieldState
	dateTo FieldState
	ok     bool

	listeners map[int]Listener
	nextID    int

	now             func() time.Time
	submitter       Submitter
	policyValidator Validator
	dateValidator   Validator
}

// New creates a controller with an empty policy and today's date. Both
// fields are validated immediately and start untouched.
func New(opts ...Option) *Controller {
	c := &Controller{
		listeners:       map[int]Listener{},
		now:             time.Now,
		policyValidator: validate.PolicyID,
		dateValidator:   validate.Date,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.policy = check(c.policyValidator, "", false)
	c.dateTo = check(c.dateValidator, validate.FormatDate(c.now()), false)
	c.ok = aggregate(c.policy, c.dateTo)
	return c
}

// SetPolicy updates the policy field and recomputes ok.
func (c *Controller) SetPolicy(value string) {
	c.mu.Lock()
	c.policy = check(c.policyValidator, value, true)
	c.ok = aggregate(c.policy, c.dateTo)
	c.mu.Unlock()

	c.notify()
}

// SetDateTo updates the date field and recomputes ok.
func (c *Controller) SetDateTo(value string) {
	c.mu.Lock()
	c.dateTo = check(c.dateValidator, value, true)
	c.ok = aggregate(c.policy, c.dateTo)
	c.mu.Unlock()

	c.notify()
}

// IsValid reports the aggregate ok flag.
func (c *Controller) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ok
}

func (c *Controller) Policy() FieldState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy
}

func (c *Controller) DateTo() FieldState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dateTo
}

// State returns a snapshot of both fields and ok.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// VisibleError returns the field's error once the field has been modified.
// Untouched fields never show an error.
func (c *Controller) VisibleError(field string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fs FieldState
	switch field {
	case FieldPolicy:
		fs = c.policy
	case FieldDateTo:
		fs = c.dateTo
	default:
		return ""
	}

	if !fs.Touched || fs.Valid {
		return ""
	}
	return fs.Error
}

// Subscribe registers l for state changes. The returned func removes it.
func (c *Controller) Subscribe(l Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Validate returns the field errors that keep ok false, or nil.
func (c *Controller) Validate() error {
	c.mu.Lock()
	s := c.snapshot()
	c.mu.Unlock()

	return s.Err()
}

// Submit hands the current values to the submitter when the form is ok.
// An invalid form returns criterio.FieldErrors and submits nothing.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	s := c.snapshot()
	submitter := c.submitter
	c.mu.Unlock()

	if err := s.Err(); err != nil {
		return err
	}
	if submitter != nil {
		submitter.Submit(ctx, s.Policy.Value, s.DateTo.Value)
	}
	return nil
}

// Err reports why s is not ok as criterio.FieldErrors.
func (s State) Err() error {
	if s.OK {
		return nil
	}

	var errs criterio.FieldErrorsBuilder
	switch {
	case !s.Policy.Valid:
		errs = errs.Append(FieldPolicy, validationError(s.Policy.Error))
	case strings.TrimSpace(s.Policy.Value) == "":
		errs = errs.Append(FieldPolicy, ErrPolicyRequired)
	}
	if !s.DateTo.Valid {
		errs = errs.Append(FieldDateTo, validationError(s.DateTo.Error))
	}
	return errs.ToError()
}

func (c *Controller) snapshot() State {
	return State{Policy: c.policy, DateTo: c.dateTo, OK: c.ok}
}

func (c *Controller) notify() {
	c.mu.Lock()
	s := c.snapshot()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}

func check(v Validator, value string, touched bool) FieldState {
	fs := FieldState{Value: value, Valid: true, Touched: touched}
	if err := v(value); err != nil {
		fs.Valid = false
		fs.Error = err.Error()
	}
	return fs
}

// aggregate is the ok rule: a non-blank, valid policy and a valid date.
func aggregate(policy, dateTo FieldState) bool {
	return strings.TrimSpace(policy.Value) != "" && policy.Valid && dateTo.Valid
}
