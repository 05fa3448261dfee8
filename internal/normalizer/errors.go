package normalizer

import "fmt"

// Error kinds. Callers branch on these instead of matching error
// message text.
const (
	KindParseError     = "parse_error"
	KindSafetyBlocked  = "safety_blocked"
	KindAbnormalFinish = "abnormal_finish"
	KindEmptyResponse  = "empty_response"
)

// Error is a classification failure with a machine-readable kind.
// Retrieve it with errors.As to distinguish parse failures from
// safety blocks and abnormal model terminations.
type Error struct {
	Kind string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewParseError wraps a JSON decoding failure.
func NewParseError(err error) *Error {
	return &Error{Kind: KindParseError, Msg: "cannot extract valid JSON from model response", Err: err}
}

// NewSafetyBlockedError reports that generation was refused for safety
// reasons. This is informational: the caller still receives a usable
// review sentinel alongside it.
func NewSafetyBlockedError(reason string) *Error {
	return &Error{Kind: KindSafetyBlocked, Msg: "generation blocked: " + reason}
}

// NewAbnormalFinishError reports a non-normal, non-safety termination
// such as truncation.
func NewAbnormalFinishError(reason string) *Error {
	return &Error{Kind: KindAbnormalFinish, Msg: "generation finished abnormally: " + reason}
}

// NewEmptyResponseError reports that the model returned no usable
// content at all.
func NewEmptyResponseError() *Error {
	return &Error{Kind: KindEmptyResponse, Msg: "model returned an empty response"}
}
