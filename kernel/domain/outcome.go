package domain

import (
	"fmt"
)

// Outcome is the result of one evaluation call. The set of variants is closed:
// Value, Unit, RuntimeFailure, CompileFailure, Incomplete and HistoryMismatch.
type Outcome interface {
	fmt.Stringer

	outcome()
}

// Value is a successful evaluation that produced a user-visible value.
type Value struct {
	Value interface{}
}

// Unit is a successful evaluation without a value, such as a declaration or an assignment.
type Unit struct{}

// RuntimeFailure is an evaluation that failed while running.
type RuntimeFailure struct {
	Message string
}

// CompileFailure is an evaluation that failed to parse or type-check.
type CompileFailure struct {
	Message string
}

// Incomplete is an evaluation of code that ends before a complete statement.
type Incomplete struct{}

// HistoryMismatch is an evaluation whose sequence id does not follow the previous one.
type HistoryMismatch struct{}

func (Value) outcome()           {}
func (Unit) outcome()            {}
func (RuntimeFailure) outcome()  {}
func (CompileFailure) outcome()  {}
func (Incomplete) outcome()      {}
func (HistoryMismatch) outcome() {}

// String does not stringify the value itself, as that may fail.
func (v Value) String() string {
	return fmt.Sprintf("Value(%T)", v.Value)
}

func (Unit) String() string {
	return "Unit"
}

func (f RuntimeFailure) String() string {
	return fmt.Sprintf("RuntimeFailure(%s)", f.Message)
}

func (f CompileFailure) String() string {
	return fmt.Sprintf("CompileFailure(%s)", f.Message)
}

func (Incomplete) String() string {
	return "Incomplete"
}

func (HistoryMismatch) String() string {
	return "HistoryMismatch"
}

const (
	CheckComplete CheckResult = iota
	CheckIncomplete
	CheckInvalid
)

// CheckResult is the result of a syntax-only completeness check.
type CheckResult int

func (r CheckResult) String() string {
	switch r {
	case CheckComplete:
		return "Complete"
	case CheckIncomplete:
		return "Incomplete"
	case CheckInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("CheckResult(%d)", int(r))
	}
}
