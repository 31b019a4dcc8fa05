package pkg

import "io"

// RecoverySession owns every resource a recovery run opens: the capture
// reader, the image output file, the report file. Resources register in
// acquisition order and Close releases them in reverse order on every exit
// path, whether the run succeeded, was skipped short, or aborted.
type RecoverySession struct {
	closers []io.Closer
}

// NewRecoverySession creates an empty session.
func NewRecoverySession() *RecoverySession {
	return &RecoverySession{}
}

// Track registers a resource for release when the session closes.
func (s *RecoverySession) Track(c io.Closer) {
	s.closers = append(s.closers, c)
}

// Close releases all tracked resources in reverse acquisition order. The
// first error is reported; later resources are still released.
func (s *RecoverySession) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
