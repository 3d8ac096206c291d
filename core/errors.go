package core

// These errors are mostly configuration errors, not internal errors.

import (
	"errors"
)

// NoCatalog occurs when Messaging is asked to do something before a
// Catalog is available.
var NoCatalog = errors.New("no catalog")

// MissingMetadata occurs when a MetadataStore is given a nil record
// or one without an id.
var MissingMetadata = errors.New("missing metadata or metadata id")

// EvaluationError is what a Helper should return when it can't
// evaluate an expression: the expression is malformed, it refers to
// an unknown attribute, or it didn't produce a boolean.
//
// Messaging treats any error from Helper.Evaluate as false, so
// this type is a courtesy for Helpers and their callers.
type EvaluationError struct {
	Expr string
	Err  error
}

func (e *EvaluationError) Error() string {
	return `can't evaluate "` + e.Expr + `": ` + e.Err.Error()
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// UnknownControlBehavior occurs when a Catalog's OnControl isn't a
// ControlBehavior that we know.
type UnknownControlBehavior struct {
	Value string
}

func (e *UnknownControlBehavior) Error() string {
	return `unknown control behavior "` + e.Value + `"`
}

// UnknownMessage occurs when a message id doesn't refer to any
// available message.
type UnknownMessage struct {
	Id string
}

func (e *UnknownMessage) Error() string {
	return `message "` + e.Id + `" not available`
}
