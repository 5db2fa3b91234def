package server

import (
	"fmt"
)

// State is a step of the application start-up sequence.
//
// The sequence is linear:
//
//	Init -> RoutesMounted -> FallbacksMounted -> Connecting -> Listening
//
// Connecting and Listening may also move to Failed. Listening and
// Failed are terminal.
type State int

const (
	StateInit State = iota
	StateRoutesMounted
	StateFallbacksMounted
	StateConnecting
	StateListening
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRoutesMounted:
		return "routes_mounted"
	case StateFallbacksMounted:
		return "fallbacks_mounted"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// canTransition reports whether next may follow s.
func (s State) canTransition(next State) bool {
	switch s {
	case StateConnecting:
		return next == StateListening || next == StateFailed
	case StateListening, StateFailed:
		return false
	default:
		return next == s+1
	}
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Advance moves the lifecycle to next.
// Out-of-order transitions are rejected and leave the state unchanged.
func (s *Server) Advance(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.canTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
	}

	s.Logger.Debug().
		Str("from", s.state.String()).
		Str("to", next.String()).
		Msg("lifecycle state changed")

	s.state = next
	return nil
}

// fail moves to Failed from wherever a start-up step broke.
func (s *Server) fail(err error, msg string) error {
	if advanceErr := s.Advance(StateFailed); advanceErr != nil {
		s.Logger.Warn().Err(advanceErr).Msg("could not record failed state")
	}
	s.Logger.Error().Err(err).Msg(msg)
	return err
}
