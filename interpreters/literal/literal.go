// Package literal implements a core.Platform that only understands
// the expressions "true" and "false".
//
// Useful for tests and for dry runs of a catalog when the real
// expression evaluator isn't available.
package literal

import (
	"context"
	"errors"
	"strings"

	"github.com/Comcast/nudge/core"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotLiteral is wrapped in the core.EvaluationError for anything
// that isn't "true" or "false".
var NotLiteral = errors.New("not a literal")

// Interpreter is a core.Platform that evaluates "true" and "false"
// (ignoring surrounding whitespace) and nothing else.
type Interpreter struct {
	// Silent, if false, will log a warning for every expression
	// that isn't a literal.
	Silent bool

	Logger *zap.Logger
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) CreateHelper(ctx context.Context, attrs map[string]interface{}) (core.Helper, error) {
	return &helper{i: i}, nil
}

type helper struct {
	i *Interpreter
}

func (h *helper) Evaluate(ctx context.Context, expr string) (bool, error) {
	switch strings.TrimSpace(expr) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if !h.i.Silent && h.i.Logger != nil {
		h.i.Logger.Warn("literal interpreter can't evaluate", zap.String("expr", expr))
	}
	return false, &core.EvaluationError{
		Expr: expr,
		Err:  NotLiteral,
	}
}

// GenerateID makes a random id if the template contains "{uuid}".
func (h *helper) GenerateID(template string) string {
	if !strings.Contains(template, "{uuid}") {
		return ""
	}
	return uuid.NewString()
}

func (h *helper) Format(template, id string) (string, error) {
	return strings.ReplaceAll(template, "{uuid}", id), nil
}
