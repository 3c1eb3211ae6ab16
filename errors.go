package prefs

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownScope            = errors.New("prefs: unknown scope")
	ErrUnknownCategory         = errors.New("prefs: unknown preference category")
	ErrUnknownPreferencesScope = errors.New("prefs: unknown preferences scope")
	// ErrStylesheetNotFound is wrapped by DescriptorSource implementations
	// for unknown stylesheets. The resolver degrades it to "no value".
	ErrStylesheetNotFound = errors.New("prefs: stylesheet descriptor not found")
	// ErrIdentityRequired indicates a persistent preference was addressed
	// without a person and profile.
	ErrIdentityRequired     = errors.New("prefs: person and profile are required for persistent scope")
	ErrAttributeBagRequired = errors.New("prefs: attribute bag not available")
	ErrStoreRequired        = errors.New("prefs: preferences store is required")
	ErrLayoutTreeRequired   = errors.New("prefs: layout tree is required for layout attributes")
	ErrRequestRequired      = errors.New("prefs: request is required")
	// ErrConstraintViolation indicates a value rejected by its descriptor
	// constraint.
	ErrConstraintViolation = errors.New("prefs: value violates descriptor constraint")
)

// ResolutionError describes a failed get/set/remove call. Store and
// collaborator failures are always returned wrapped in one.
type ResolutionError struct {
	Op        string
	Category  Category
	Name      string
	ElementID string
	Scope     Scope
	Err       error
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	target := e.Name
	if e.ElementID != "" {
		target = e.ElementID + "/" + e.Name
	}
	return fmt.Sprintf("prefs: %s %s %q scope=%s: %v", e.Op, e.Category, target, e.Scope, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EvaluationError captures evaluator metadata alongside the originating
// error.
type EvaluationError struct {
	Engine string
	Expr   string
	Name   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("prefs: %s evaluator %s name=%s: %v", e.Engine, describeExpression(e.Expr), e.Name, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluationError(engine, expr, name string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Name == "" {
			evalErr.Name = name
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Name:   name,
		Err:    err,
	}
}
