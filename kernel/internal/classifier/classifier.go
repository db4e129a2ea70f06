package classifier

import (
	"fmt"
	"strings"

	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
	"github.com/scusemua/notebook-kernel/kernel/domain"
)

const (
	ErrorText         = "Error!"
	SilentText        = "OK"
	IncompleteText    = "Incomplete code"
	HistoryText       = "History mismatch"
	StringifyFailText = "Unable to convert result to a string"
	UnexpectedText    = "Unexpected result from evaluation"
)

// Classify maps an evaluation outcome and the text captured while producing it to a NormalizedResponse.
// It has no side effects.
func Classify(outcome domain.Outcome, stdout *string, stderr *string) *domain.NormalizedResponse {
	switch o := outcome.(type) {
	case domain.Value:
		text, err := stringify(o.Value)
		if err != nil {
			return failure(stdout, stderr, fmt.Sprintf("%s: %v", StringifyFailText, err))
		}

		return &domain.NormalizedResponse{
			State:   domain.StateOk,
			Payload: textPayload(text),
			StdOut:  nonBlank(stdout),
			StdErr:  nonBlank(stderr),
		}
	case domain.Unit:
		return &domain.NormalizedResponse{
			State:   domain.StateOkSilent,
			Payload: textPayload(SilentText),
			StdOut:  nonBlank(stdout),
			StdErr:  nonBlank(stderr),
		}
	case domain.RuntimeFailure:
		return failure(stdout, stderr, o.Message)
	case domain.CompileFailure:
		return failure(stdout, stderr, o.Message)
	case domain.Incomplete:
		return failure(stdout, stderr, IncompleteText)
	case domain.HistoryMismatch:
		return failure(stdout, stderr, HistoryText)
	default:
		return Unexpected(stdout, stderr, outcome)
	}
}

// Unexpected is the response for anything that is not a known outcome, such as a panic that escaped evaluation.
func Unexpected(stdout *string, stderr *string, what interface{}) *domain.NormalizedResponse {
	return failure(stdout, stderr, fmt.Sprintf("%s: %s", UnexpectedText, describe(what)))
}

func failure(stdout *string, stderr *string, message string) *domain.NormalizedResponse {
	return &domain.NormalizedResponse{
		State:   domain.StateError,
		Payload: textPayload(ErrorText),
		StdOut:  nonBlank(stdout),
		StdErr:  AppendLine(stderr, message),
	}
}

// AppendLine joins text and line with a newline, skipping either one if blank. The result is nil if both are blank.
func AppendLine(text *string, line string) *string {
	var parts []string
	if text != nil && strings.TrimSpace(*text) != "" {
		parts = append(parts, strings.TrimRight(*text, "\n"))
	}

	if strings.TrimSpace(line) != "" {
		parts = append(parts, line)
	}

	if len(parts) == 0 {
		return nil
	}

	joined := strings.Join(parts, "\n")
	return &joined
}

func textPayload(text string) map[string]interface{} {
	return map[string]interface{}{
		messaging.MimeTextPlain: text,
	}
}

func nonBlank(text *string) *string {
	if text == nil || strings.TrimSpace(*text) == "" {
		return nil
	}

	return text
}

// stringify formats v. fmt swallows panics raised by String and Error methods, so those methods are
// called directly and a panic becomes the returned error.
func stringify(v interface{}) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	switch s := v.(type) {
	case error:
		return s.Error(), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func describe(what interface{}) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("%T", what)
		}
	}()

	if what == nil {
		return "<nil>"
	}

	return fmt.Sprintf("%v", what)
}
