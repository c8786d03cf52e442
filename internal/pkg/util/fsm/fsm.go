package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts a callback returning an error to a looplab callback.
// A non-nil error is stored on the event and returned by FSM.Event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// IsRealError reports whether err is more than a self-transition or a canceled transition.
func IsRealError(err error) bool {
	if err == nil {
		return false
	}

	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError

	if errors.As(err, &noTransition) || errors.As(err, &canceled) {
		return false
	}

	return true
}

// IsInvalidEvent reports whether err says the event cannot fire from the current state.
func IsInvalidEvent(err error) bool {
	var invalid fsm.InvalidEventError
	return errors.As(err, &invalid)
}
