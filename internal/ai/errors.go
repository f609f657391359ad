package ai

import "fmt"

// UpstreamError marks a failure of the external text-completion capability:
// transport errors, empty candidates, unparseable JSON, or responses whose
// shape does not match the expected schema. Callers must treat it as fatal for
// the stage that triggered the call and must never substitute defaults for the
// missing data.
type UpstreamError struct {
	Op     string // "metadata" or "city"
	Reason string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("upstream %s: %s", e.Op, e.Reason)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstreamf(op, format string, args ...any) *UpstreamError {
	return &UpstreamError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
