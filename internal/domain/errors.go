package domain

import "errors"

// ErrorKind classifies failures surfaced to callers and event listeners.
type ErrorKind string

const (
	KindConfigInvalid         ErrorKind = "config_invalid"
	KindChannelUnavailable    ErrorKind = "channel_unavailable"
	KindAnalysisUnavailable   ErrorKind = "analysis_unavailable"
	KindPersistenceFailure    ErrorKind = "persistence_failure"
	KindDuplicateFinalization ErrorKind = "duplicate_finalization"
	KindSessionClosed         ErrorKind = "session_closed"
	KindNotFound              ErrorKind = "not_found"
	KindInternal              ErrorKind = "internal"
)

var (
	// ErrConfigInvalid is fatal to starting a session; no record is created.
	ErrConfigInvalid = errors.New("interview configuration invalid")
	// ErrChannelUnavailable means the voice channel could not be acquired.
	ErrChannelUnavailable = errors.New("voice channel unavailable")
	// ErrAnalysisUnavailable is absorbed by the fallback scorer and only logged.
	ErrAnalysisUnavailable = errors.New("analysis service unavailable")
	// ErrPersistenceFailure is logged; the in-memory result stays authoritative.
	ErrPersistenceFailure = errors.New("session persistence failed")
	// ErrDuplicateFinalization is an invariant violation.
	ErrDuplicateFinalization = errors.New("session finalized more than once")
	// ErrSessionClosed is returned by mutating calls after termination was requested.
	ErrSessionClosed = errors.New("session no longer accepts input")
	// ErrSessionNotFound is returned when no live or stored session matches.
	ErrSessionNotFound = errors.New("session not found")
	// ErrWrongModality is returned for an operation the session's modality does not support.
	ErrWrongModality = errors.New("operation not supported for session modality")
)

// KindOf maps an error chain onto its ErrorKind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigInvalid), errors.Is(err, ErrWrongModality):
		return KindConfigInvalid
	case errors.Is(err, ErrChannelUnavailable):
		return KindChannelUnavailable
	case errors.Is(err, ErrAnalysisUnavailable):
		return KindAnalysisUnavailable
	case errors.Is(err, ErrPersistenceFailure):
		return KindPersistenceFailure
	case errors.Is(err, ErrDuplicateFinalization):
		return KindDuplicateFinalization
	case errors.Is(err, ErrSessionClosed):
		return KindSessionClosed
	case errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	}
	return KindInternal
}
