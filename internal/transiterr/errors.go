// Package transiterr defines the error taxonomy shared by every component of
// the merge engine. Components return a tagged *Error instead of ad-hoc
// values so callers can decide per kind whether to degrade or fail.
package transiterr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// Internal is any failure that has no more specific kind.
	Internal Kind = iota
	// FeedUnavailable means a realtime feed could not be fetched or decoded.
	FeedUnavailable
	// NoActiveService means no service_id runs on the requested date.
	NoActiveService
	// NotYetScheduled means the schedule window contains no candidates.
	NotYetScheduled
	// LookupMiss means a referenced stop, trip or route has no static record.
	LookupMiss
	// InternalAggregation means the store returned an aggregation row with an unexpected shape.
	InternalAggregation
)

func (k Kind) String() string {
	switch k {
	case FeedUnavailable:
		return "FEED_UNAVAILABLE"
	case NoActiveService:
		return "NO_ACTIVE_SERVICE"
	case NotYetScheduled:
		return "NOT_YET_SCHEDULED"
	case LookupMiss:
		return "LOOKUP_MISS"
	case InternalAggregation:
		return "INTERNAL_AGGREGATION_ERROR"
	default:
		return "INTERNAL"
	}
}

// Error carries a kind, a human readable tag and the underlying cause.
type Error struct {
	Kind Kind
	Tag  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Tag
	}
	return fmt.Sprintf("%s: %v", e.Tag, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind: errors.Is(err, transiterr.ErrLookupMiss).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Tag == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInternal            = &Error{Kind: Internal}
	ErrFeedUnavailable     = &Error{Kind: FeedUnavailable}
	ErrNoActiveService     = &Error{Kind: NoActiveService}
	ErrNotYetScheduled     = &Error{Kind: NotYetScheduled}
	ErrLookupMiss          = &Error{Kind: LookupMiss}
	ErrInternalAggregation = &Error{Kind: InternalAggregation}
)

// New builds a tagged error of the given kind.
func New(kind Kind, tag string, err error) *Error {
	return &Error{Kind: kind, Tag: tag, Err: err}
}

// Newf builds a tagged error with a formatted tag and no cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Tag: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsStatus reports whether err is a user-visible condition rather than a failure.
func IsStatus(err error) bool {
	switch KindOf(err) {
	case NoActiveService, NotYetScheduled:
		return err != nil
	default:
		return false
	}
}
