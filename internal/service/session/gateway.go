package session

import (
	"context"
	"time"

	"github.com/ignite/vcfbot/internal/domain"
)

// Gateway is the outbound side of the chat transport.
type Gateway interface {
	// SendText posts a new message.
	SendText(ctx context.Context, key, text string, opts domain.MessageOptions) error

	// SendFile posts a document. caption may be empty; a non-empty caption
	// is rendered as Markdown.
	SendFile(ctx context.Context, key, name string, data []byte, caption string) error

	// CreateStatus posts a message that can later be edited in place.
	CreateStatus(ctx context.Context, key, text string, opts domain.MessageOptions) (domain.StatusHandle, error)

	// EditStatus replaces the text of a status message. It returns
	// domain.ErrStatusGone when the message can no longer be edited.
	EditStatus(ctx context.Context, handle domain.StatusHandle, text string, opts domain.MessageOptions) error
}

// Archiver keeps a copy of every delivered output file. Optional.
type Archiver interface {
	Archive(ctx context.Context, key string, file domain.OutputFile) error
}

// Recorder stores a summary row per completed job. Optional.
type Recorder interface {
	Record(ctx context.Context, job domain.JobSummary) error
}

// Scheduler delivers ev to the session for key after d. Scheduled events
// are never cancelled; handlers must tolerate stale deliveries.
type Scheduler interface {
	After(d time.Duration, key string, ev Event)
}
