package repository

import (
	"context"

	"github.com/google/uuid"

	"pollbox/internal/domain/poll"
)

// PollRepository is the owner-scoped storage contract for polls. Mutations
// filter by id AND owner in a single statement so ownership verification
// and the write cannot race.
type PollRepository interface {
	Create(ctx context.Context, p *poll.Poll) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]poll.Poll, error)
	GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (poll.Poll, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, question string, options []string) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type VoteRepository interface {
	Insert(ctx context.Context, v *poll.Vote) error
	TallyByPoll(ctx context.Context, pollID uuid.UUID) (map[int]int, error)
	HasVoted(ctx context.Context, pollID, userID uuid.UUID) (bool, error)
}
