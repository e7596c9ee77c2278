package poll

import (
	"time"

	"github.com/google/uuid"
)

// Poll represents polls
type Poll struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Question  string
	Options   []Option
	CreatedAt time.Time
}

// Option represents poll_options. Position is the zero-based insertion
// index votes refer to.
type Option struct {
	ID       uuid.UUID
	PollID   uuid.UUID
	Text     string
	Position int
}

// Vote represents votes. UserID is nil for anonymous votes.
type Vote struct {
	ID          uuid.UUID
	PollID      uuid.UUID
	OptionIndex int
	UserID      *uuid.UUID
	CreatedAt   time.Time
}
