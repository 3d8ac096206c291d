// Package goja implements core.Platform using Goja, which is a Go
// implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/nudge/core"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Evaluate if the evaluation is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// DefaultTimeout bounds a single evaluation when the
	// Interpreter doesn't say otherwise.
	DefaultTimeout = 100 * time.Millisecond

	// UUIDPlaceholder in an action template is replaced by the
	// generated id.
	UUIDPlaceholder = "{uuid}"
)

// Interpreter is a core.Platform.  Trigger expressions are
// ECMAScript expressions.  Custom attributes are global variables,
// so an expression can be as simple as
//
//	is_default_browser && 3 < days_since_install
//
// An expression that refers to an attribute that isn't there fails
// with a ReferenceError, which Evaluate reports as a
// core.EvaluationError.
type Interpreter struct {
	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// Timeout bounds each evaluation.  Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// Libraries are names of libraries that are loaded into each
	// runtime before an expression is evaluated.  Useful for
	// sharing functions among triggers.
	Libraries []string

	// LibraryProvider resolves a library name into source.
	LibraryProvider func(ctx context.Context, name string) (string, error)

	Logger *zap.Logger

	// programs caches compiled expressions.  An expression's
	// program doesn't depend on attributes, so this cache can
	// outlive a selection.
	programs sync.Map

	libsOnce sync.Once
	libs     *goja.Program
	libsErr  error
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// MakeFileLibraryProvider reads libraries from files in the given
// directory.
func MakeFileLibraryProvider(dir string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		filename := filepath.Join(dir, filepath.Clean("/"+name))
		bs, err := os.ReadFile(filename)
		if err != nil {
			return "", err
		}
		return string(bs), nil
	}
}

// MakeMapLibraryProvider serves libraries from the given map.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func (i *Interpreter) logger() *zap.Logger {
	if i.Logger == nil {
		return zap.NewNop()
	}
	return i.Logger
}

func (i *Interpreter) timeout() time.Duration {
	if i.Timeout <= 0 {
		return DefaultTimeout
	}
	return i.Timeout
}

// libraries compiles the Libraries once.
func (i *Interpreter) libraries(ctx context.Context) (*goja.Program, error) {
	i.libsOnce.Do(func() {
		if len(i.Libraries) == 0 {
			return
		}
		if i.LibraryProvider == nil {
			i.libsErr = errors.New("libraries without a LibraryProvider")
			return
		}
		var src string
		for _, lib := range i.Libraries {
			libSrc, err := i.LibraryProvider(ctx, lib)
			if err != nil {
				i.libsErr = fmt.Errorf("library %s: %w", lib, err)
				return
			}
			src += libSrc + "\n"
		}
		i.libs, i.libsErr = goja.Compile("libraries", src, false)
	})
	return i.libs, i.libsErr
}

// Compile compiles the given expression.
//
// The expression is parenthesized, so statements aren't allowed.
func (i *Interpreter) Compile(expr string) (*goja.Program, error) {
	if x, have := i.programs.Load(expr); have {
		return x.(*goja.Program), nil
	}
	p, err := goja.Compile("", "("+expr+")", true)
	if err != nil {
		return nil, err
	}
	i.programs.Store(expr, p)
	return p, nil
}

// copyAttributes deep-copies custom attributes through JSON, so
// values reach the runtime as plain maps, slices, strings, float64s,
// and bools no matter what Go types the caller used.  A nil map gives
// an empty one.
func copyAttributes(attributes map[string]interface{}) (map[string]interface{}, error) {
	acc := map[string]interface{}{}
	if attributes == nil {
		return acc, nil
	}
	js, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	if err = json.Unmarshal(js, &acc); err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	return acc, nil
}

// CreateHelper implements core.Platform.
//
// The attributes are copied, so the caller can reuse them.
func (i *Interpreter) CreateHelper(ctx context.Context, attributes map[string]interface{}) (core.Helper, error) {
	attrs, err := copyAttributes(attributes)
	if err != nil {
		return nil, err
	}

	libs, err := i.libraries(ctx)
	if err != nil {
		return nil, err
	}

	return &Helper{
		i:          i,
		attributes: attrs,
		libs:       libs,
	}, nil
}

// Helper is a core.Helper for one set of attributes.
type Helper struct {
	i          *Interpreter
	attributes map[string]interface{}
	libs       *goja.Program
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// runtime makes a new runtime with the attributes and utilities.
//
// The following properties are available from the runtime at _.
//
//	attributes: the map of custom attributes.
//	cronNext(expr): the next time (RFC3339) the cron expression fires.
//	esc(s): URL query-escape the given string.
//	log(x): log the given value.
//
// For testing only:
//
//	sleep(ms): sleep for the given number of milliseconds.
func (h *Helper) runtime() *goja.Runtime {
	o := goja.New()

	for k, v := range h.attributes {
		o.Set(k, v)
	}

	env := map[string]interface{}{
		"attributes": h.attributes,
	}

	env["cronNext"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		cronExpr, is := x.(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		s, is := x.(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	}

	env["log"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		js, err := json.Marshal(&x)
		if err != nil {
			h.i.logger().Info("goja.log", zap.String("error", err.Error()))
		} else {
			h.i.logger().Info("goja.log", zap.String("value", string(js)))
		}
		return x
	}

	if h.i.Testing {
		env["sleep"] = func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	o.Set("_", env)

	return o
}

// Evaluate implements core.Helper.
func (h *Helper) Evaluate(ctx context.Context, expr string) (bool, error) {
	p, err := h.i.Compile(expr)
	if err != nil {
		return false, &core.EvaluationError{Expr: expr, Err: err}
	}

	o := h.runtime()

	// The interrupt goroutine is gone before we return.
	ictx, cancel := context.WithTimeout(ctx, h.i.timeout())
	interrupted := make(chan struct{})
	go func() {
		<-ictx.Done()
		o.Interrupt(InterruptedMessage)
		close(interrupted)
	}()
	done := func() {
		cancel()
		<-interrupted
		o.ClearInterrupt()
	}

	if h.libs != nil {
		if _, err = o.RunProgram(h.libs); err != nil {
			done()
			return false, &core.EvaluationError{Expr: expr, Err: err}
		}
	}

	v, err := o.RunProgram(p)
	done()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			err = Interrupted
		}
		return false, &core.EvaluationError{Expr: expr, Err: err}
	}

	b, is := v.Export().(bool)
	if !is {
		return false, &core.EvaluationError{
			Expr: expr,
			Err:  fmt.Errorf("%#v (%T) isn't a boolean", v.Export(), v.Export()),
		}
	}
	return b, nil
}

// GenerateID returns a new UUID if the template has a place for it.
func (h *Helper) GenerateID(template string) string {
	if !strings.Contains(template, UUIDPlaceholder) {
		return ""
	}
	return uuid.NewString()
}

// Format substitutes the id for UUIDPlaceholder and string, number,
// and boolean attributes for "{name}".  Attribute values are URL
// query-escaped.
func (h *Helper) Format(template, id string) (string, error) {
	if strings.Contains(template, UUIDPlaceholder) {
		if id == "" {
			return "", errors.New("no id for " + UUIDPlaceholder)
		}
		template = strings.ReplaceAll(template, UUIDPlaceholder, id)
	}
	for k, v := range h.attributes {
		p := "{" + k + "}"
		if !strings.Contains(template, p) {
			continue
		}
		switch v.(type) {
		case string, float64, bool:
			template = strings.ReplaceAll(template, p, url.QueryEscape(fmt.Sprint(v)))
		}
	}
	return template, nil
}
