// Package ir implements the deterministic transform chain that turns a run's
// points/profiles/results into a chain of schema-versioned JSON artifacts,
// each stage embedding a content digest of the previous stage's text.
package ir

// StageErrorKind is the fixed per-stage error enumeration (spec.md §4.8).
type StageErrorKind string

const (
	ReadError               StageErrorKind = "ReadError"
	DeserializeError        StageErrorKind = "DeserializeError"
	UnsupportedSchemaVer    StageErrorKind = "UnsupportedSchemaVersion"
	UnsupportedSpecVer      StageErrorKind = "UnsupportedSpecVersion"
	ValidationError         StageErrorKind = "ValidationError"
	WriteError              StageErrorKind = "WriteError"
)

// StageError is the tagged error every stage function returns on failure.
type StageError struct {
	Kind    StageErrorKind
	Message string
	Details map[string]interface{}
}

func (e *StageError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func newStageError(kind StageErrorKind, message string, details map[string]interface{}) *StageError {
	return &StageError{Kind: kind, Message: message, Details: details}
}
