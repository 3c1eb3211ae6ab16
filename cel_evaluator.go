package prefs

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

type celEvaluator struct {
	cache ProgramCache
	env   *celgo.Env
	err   error
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Constraint
// variables are declared with static types so expressions are type checked.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.env, e.err = celgo.NewEnv(
		celgo.Variable("value", celgo.StringType),
		celgo.Variable("name", celgo.StringType),
		celgo.Variable("category", celgo.StringType),
		celgo.Variable("scope", celgo.StringType),
		celgo.Variable("element_id", celgo.StringType),
		celgo.Variable("element_type", celgo.StringType),
		celgo.Variable("stylesheet", celgo.StringType),
		celgo.Variable("stylesheet_id", celgo.IntType),
		celgo.Variable("now", celgo.TimestampType),
	)
	return e
}

func (e *celEvaluator) Evaluate(ctx ConstraintContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	if e.err != nil {
		return nil, e.err
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.Name, err)
	}
	out, _, err := program.Eval(ctx.variables())
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.Name, err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get("cel:" + expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set("cel:"+expression, program)
	}
	return program, nil
}
