package prefs

import (
	"fmt"
	"sync"
	"time"
)

// ConstraintContext carries the inputs visible to a descriptor constraint.
// Expressions see the variables value, name, category, scope, element_id,
// element_type, stylesheet, stylesheet_id and now.
type ConstraintContext struct {
	Value        string
	Name         string
	Category     Category
	Scope        Scope
	ElementID    string
	ElementType  string
	StylesheetID int64
	Stylesheet   string
	Now          time.Time
}

func (c ConstraintContext) variables() map[string]any {
	now := c.Now
	if now.IsZero() {
		now = time.Now()
	}
	return map[string]any{
		"value":         c.Value,
		"name":          c.Name,
		"category":      string(c.Category),
		"scope":         c.Scope.String(),
		"element_id":    c.ElementID,
		"element_type":  c.ElementType,
		"stylesheet":    c.Stylesheet,
		"stylesheet_id": c.StylesheetID,
		"now":           now,
	}
}

// Evaluator executes constraint expressions.
type Evaluator interface {
	Evaluate(ctx ConstraintContext, expr string) (any, error)
}

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is an unbounded ProgramCache. Descriptor constraints
// are a small fixed set so no eviction is needed.
type MemoryProgramCache struct {
	programs sync.Map
}

func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}

func checkConstraint(evaluator Evaluator, d PreferenceDescriptor, cc ConstraintContext) error {
	if d.Constraint == "" || evaluator == nil {
		return nil
	}
	result, err := evaluator.Evaluate(cc, d.Constraint)
	if err != nil {
		return wrapEvaluationError(evaluatorEngineName(evaluator), d.Constraint, d.Name, err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return wrapEvaluationError(evaluatorEngineName(evaluator), d.Constraint, d.Name,
			fmt.Errorf("constraint must evaluate to bool, got %T", result))
	}
	if !ok {
		return fmt.Errorf("%w: %s %q rejects %q (%s)", ErrConstraintViolation, d.Category, d.Name, cc.Value, d.Constraint)
	}
	return nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if named, ok := e.(interface{ Engine() string }); ok {
			return named.Engine()
		}
		return "custom"
	}
}
