package services

import (
	"context"
	"fmt"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/ratelimit"
	"pollbox/internal/redis"
	"pollbox/internal/repository"
	"pollbox/internal/validation"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
)

// VotePolicy is the explicit configuration for the open questions around
// voting: whether unauthenticated votes are accepted, and whether an
// authenticated user may vote more than once on the same poll.
type VotePolicy struct {
	RequireAuth   bool
	SinglePerUser bool
}

type PollService struct {
	polls   repository.PollRepository
	votes   repository.VoteRepository
	cache   *redis.CacheStore
	limiter *ratelimit.Limiter
	policy  VotePolicy
	log     *logger.Logger
}

func NewPollService(
	polls repository.PollRepository,
	votes repository.VoteRepository,
	cache *redis.CacheStore,
	limiter *ratelimit.Limiter,
	policy VotePolicy,
	log *logger.Logger,
) *PollService {
	return &PollService{
		polls:   polls,
		votes:   votes,
		cache:   cache,
		limiter: limiter,
		policy:  policy,
		log:     log,
	}
}

type PollInput struct {
	Question string
	Options  []string
}

type VoteInput struct {
	PollID      uuid.UUID
	OptionIndex int
	ActorID     *uuid.UUID // nil for anonymous votes
	RemoteAddr  string     // rate-limit key for anonymous actors
}

func (s *PollService) Create(ctx context.Context, actorID uuid.UUID, in PollInput) (poll.Poll, error) {
	question, options, err := validation.PollShape(in.Question, in.Options)
	if err != nil {
		return poll.Poll{}, err
	}

	if actorID == uuid.Nil {
		return poll.Poll{}, pollbox_errors.ErrUnauthorized
	}

	if res := s.limiter.AllowCreatePoll(actorID.String()); !res.Allowed {
		return poll.Poll{}, pollbox_errors.ErrRateLimited
	}

	p := poll.Poll{
		ID:        uuid.New(),
		UserID:    actorID,
		Question:  question,
		CreatedAt: time.Now(),
	}
	for i, text := range options {
		p.Options = append(p.Options, poll.Option{
			ID:       uuid.New(),
			PollID:   p.ID,
			Text:     text,
			Position: i,
		})
	}

	if err := s.polls.Create(ctx, &p); err != nil {
		return poll.Poll{}, err
	}

	s.invalidateListing(ctx, actorID)
	return p, nil
}

// ListByOwner returns the actor's polls, newest first. An actor with no
// polls gets an empty list, not an error.
func (s *PollService) ListByOwner(ctx context.Context, actorID uuid.UUID) ([]poll.Poll, error) {
	if actorID == uuid.Nil {
		return nil, pollbox_errors.ErrUnauthorized
	}

	if s.cache != nil {
		if cached, err := s.cache.GetOwnerPolls(ctx, actorID); err == nil && cached != nil {
			return cached, nil
		}
	}

	polls, err := s.polls.ListByOwner(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetOwnerPolls(ctx, actorID, polls); err != nil && s.log != nil {
			s.log.Errorf("poll list cache set failed: %s", err)
		}
	}
	return polls, nil
}

// Get returns the poll only when the actor owns it. "Exists but not
// yours" and "does not exist" are deliberately the same outcome.
func (s *PollService) Get(ctx context.Context, id, actorID uuid.UUID) (poll.Poll, error) {
	if actorID == uuid.Nil {
		return poll.Poll{}, pollbox_errors.ErrUnauthorized
	}
	return s.polls.GetByIDAndOwner(ctx, id, actorID)
}

func (s *PollService) Update(ctx context.Context, id, actorID uuid.UUID, in PollInput) (poll.Poll, error) {
	question, options, err := validation.PollShape(in.Question, in.Options)
	if err != nil {
		return poll.Poll{}, err
	}

	if actorID == uuid.Nil {
		return poll.Poll{}, pollbox_errors.ErrUnauthorized
	}

	if err := s.polls.Update(ctx, id, actorID, question, options); err != nil {
		return poll.Poll{}, err
	}

	s.invalidateListing(ctx, actorID)
	return s.polls.GetByIDAndOwner(ctx, id, actorID)
}

func (s *PollService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pollbox_errors.ErrUnauthorized
	}

	if err := s.polls.Delete(ctx, id, actorID); err != nil {
		return err
	}

	s.invalidateListing(ctx, actorID)
	return nil
}

// Vote records a vote. The option index is bounds-checked against the
// poll's current option set before anything is written.
func (s *PollService) Vote(ctx context.Context, in VoteInput) (poll.Vote, error) {
	p, err := s.polls.GetByID(ctx, in.PollID)
	if err != nil {
		return poll.Vote{}, err
	}

	if in.OptionIndex < 0 || in.OptionIndex >= len(p.Options) {
		return poll.Vote{}, fmt.Errorf("%w: option index out of range", pollbox_errors.ErrInvalidInput)
	}

	if s.policy.RequireAuth && in.ActorID == nil {
		return poll.Vote{}, pollbox_errors.ErrUnauthorized
	}

	rateKey := in.RemoteAddr
	if in.ActorID != nil {
		rateKey = in.ActorID.String()
	}
	if res := s.limiter.AllowVote(rateKey); !res.Allowed {
		return poll.Vote{}, pollbox_errors.ErrRateLimited
	}

	if s.policy.SinglePerUser && in.ActorID != nil {
		voted, err := s.votes.HasVoted(ctx, in.PollID, *in.ActorID)
		if err != nil {
			return poll.Vote{}, err
		}
		if voted {
			return poll.Vote{}, fmt.Errorf("%w: already voted on this poll", pollbox_errors.ErrAlreadyExists)
		}
	}

	v := poll.Vote{
		ID:          uuid.New(),
		PollID:      in.PollID,
		OptionIndex: in.OptionIndex,
		UserID:      in.ActorID,
		CreatedAt:   time.Now(),
	}
	if err := s.votes.Insert(ctx, &v); err != nil {
		return poll.Vote{}, err
	}
	return v, nil
}

// Results aggregates the current tallies for a poll. Pure recomputation
// on every read; nothing is cached.
func (s *PollService) Results(ctx context.Context, pollID uuid.UUID) (string, poll.Results, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return "", poll.Results{}, err
	}

	tallies, err := s.votes.TallyByPoll(ctx, pollID)
	if err != nil {
		return "", poll.Results{}, err
	}

	return p.Question, poll.BuildResults(p.Options, tallies), nil
}

// invalidateListing drops the cached owner listing. Cache failures are
// logged and swallowed; the database already holds the truth.
func (s *PollService) invalidateListing(ctx context.Context, ownerID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOwnerPolls(ctx, ownerID); err != nil && s.log != nil {
		s.log.Errorf("poll list cache invalidation failed: %s", err)
	}
}
