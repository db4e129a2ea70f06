package evaluator

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/Scusemua/go-utils/config"
	"github.com/Scusemua/go-utils/logger"
	pkgerrors "github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/scusemua/notebook-kernel/common/utils"
	"github.com/scusemua/notebook-kernel/kernel/domain"
)

// processStream writes to whatever the process-wide stream is at the time of the write, so that
// interpreted output follows the redirections made while capturing.
type processStream func() *os.File

func (s processStream) Write(p []byte) (int, error) {
	return s().Write(p)
}

// panicTrace matches the lines the interpreter writes to its standard error while unwinding a panic,
// such as "1:28: panic: main(...)" and its indented "  panic: boom" continuation.
// The panic itself is reported through the outcome.
var panicTrace = regexp.MustCompile(`^(\s*(\S+:)?\d+:\d+: panic|\s+panic: )`)

// interpreterStderr drops the interpreter's panic traces and forwards everything else.
type interpreterStderr struct {
	processStream
}

func (s interpreterStderr) Write(p []byte) (int, error) {
	if panicTrace.Match(p) {
		return len(p), nil
	}

	return s.processStream.Write(p)
}

type processStdin struct{}

func (processStdin) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

// preludeImports are imported into every new interpreter.
var preludeImports = []string{"fmt"}

var (
	stdout = processStream(func() *os.File { return os.Stdout })
	stderr = processStream(func() *os.File { return os.Stderr })
)

// Evaluator evaluates Go code with the yaegi interpreter. State is kept between evaluations.
type Evaluator struct {
	log logger.Logger

	mu      sync.Mutex
	interp  *interp.Interpreter
	lastSeq int
}

func New() (*Evaluator, error) {
	e := &Evaluator{}
	config.InitLogger(&e.log, e)

	i, err := newInterpreter()
	if err != nil {
		return nil, err
	}
	e.interp = i

	return e, nil
}

func newInterpreter() (*interp.Interpreter, error) {
	i := interp.New(interp.Options{
		Stdin:  processStdin{},
		Stdout: stdout,
		Stderr: interpreterStderr{stderr},
	})

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load the standard library symbols")
	}

	for _, pkg := range preludeImports {
		if _, err := i.Eval(`import "` + pkg + `"`); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to import \"%s\"", pkg)
		}
	}

	return i, nil
}

// Check implements domain.Evaluator.
func (e *Evaluator) Check(code string) domain.CheckResult {
	return Check(code)
}

// Evaluate implements domain.Evaluator.
func (e *Evaluator) Evaluate(seq int, code string) domain.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seq <= e.lastSeq {
		e.log.Warn(utils.OrangeStyle.Render("Evaluation %d does not follow evaluation %d."), seq, e.lastSeq)
		return domain.HistoryMismatch{}
	}
	e.lastSeq = seq

	if strings.TrimSpace(code) == "" {
		return domain.Unit{}
	}

	if Check(code) == domain.CheckIncomplete {
		return domain.Incomplete{}
	}

	v, err := e.interp.Eval(code)
	if err != nil {
		return e.failure(seq, err)
	}

	if !producesValue(code) || !v.IsValid() || !v.CanInterface() {
		return domain.Unit{}
	}

	return domain.Value{Value: v.Interface()}
}

// Reset discards every declaration made so far.
func (e *Evaluator) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, err := newInterpreter()
	if err != nil {
		return err
	}

	e.interp = i
	e.log.Debug("Interpreter state discarded.")
	return nil
}

// LastSequence returns the sequence id of the last evaluation.
func (e *Evaluator) LastSequence() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastSeq
}

// failure maps an interpreter error to an outcome. Panics are runtime failures; everything else
// was rejected before running.
func (e *Evaluator) failure(seq int, err error) domain.Outcome {
	var panicValue interp.Panic
	if errors.As(err, &panicValue) {
		e.log.Debug("Evaluation %d panicked: %v", seq, panicValue.Value)
		return domain.RuntimeFailure{Message: describePanic(panicValue.Value)}
	}

	var panicPtr *interp.Panic
	if errors.As(err, &panicPtr) && panicPtr != nil {
		e.log.Debug("Evaluation %d panicked: %v", seq, panicPtr.Value)
		return domain.RuntimeFailure{Message: describePanic(panicPtr.Value)}
	}

	e.log.Debug("Evaluation %d failed to compile: %v", seq, err)
	return domain.CompileFailure{Message: err.Error()}
}

func describePanic(value interface{}) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = reflect.TypeOf(value).String()
		}
	}()

	switch v := value.(type) {
	case error:
		return v.Error()
	case reflect.Value:
		if v.IsValid() && v.CanInterface() {
			return describePanic(v.Interface())
		}
	}

	return strings.TrimSpace(fmt.Sprint(value))
}
