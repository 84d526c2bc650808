package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies pipeline failures for the trigger response.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindCredential   ErrorKind = "credential"
	KindAuth         ErrorKind = "auth"
	KindNotFound     ErrorKind = "not_found"
	KindProvisioning ErrorKind = "provisioning"
	KindConfig       ErrorKind = "config"
	KindBusy         ErrorKind = "busy"
)

// ClientFault reports whether the failure is caused by the request rather
// than by the service or its dependencies.
func (k ErrorKind) ClientFault() bool {
	return k == KindValidation || k == KindNotFound
}

// PipelineError is the single error type surfaced by the capture pipeline.
type PipelineError struct {
	Kind   ErrorKind
	Op     string
	Fields []string
	Err    error
}

func (e *PipelineError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError wraps err with a kind and the failing operation. An err
// that already is a *PipelineError is returned unchanged.
func NewPipelineError(kind ErrorKind, op string, err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return &PipelineError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindProvisioning for foreign errors.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindProvisioning
}
