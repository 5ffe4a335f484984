package session

import (
	"time"

	"github.com/ignite/vcfbot/internal/domain"
)

// Session is the conversation state for one chat.
//
// Pending holds files only while State is AwaitingUploads. When the upload
// window closes they move to Collected, which the follow-up states consume.
type Session struct {
	Key   string
	State domain.StateKind
	Mode  domain.Mode

	Pending      []domain.FileResult
	Collected    []domain.FileResult
	LastUploadAt time.Time

	Naming domain.NamingChoice
	Seed   string
	// Merged is the deduplicated number list of a CV V2 run.
	Merged []string

	Status domain.StatusHandle
}

// NewSession returns an idle session for key.
func NewSession(key string) *Session {
	return &Session{Key: key, State: domain.StateIdle}
}

// Reset returns the session to Idle, dropping every collected value.
func (s *Session) Reset() {
	*s = Session{Key: s.Key, State: domain.StateIdle}
}

// IsIdle reports whether nothing is in progress.
func (s *Session) IsIdle() bool {
	return s.State == domain.StateIdle
}

// enter resets the session and starts mode in state.
func (s *Session) enter(mode domain.Mode, state domain.StateKind, now time.Time) {
	s.Reset()
	s.Mode = mode
	s.State = state
	if state == domain.StateAwaitingUploads {
		s.LastUploadAt = now
	}
}

// closeUploads moves the pending files to Collected and switches to next.
func (s *Session) closeUploads(next domain.StateKind) {
	s.Collected = s.Pending
	s.Pending = nil
	s.State = next
}

func totalEntries(files []domain.FileResult) int {
	n := 0
	for _, f := range files {
		n += f.Size()
	}
	return n
}
