package repository

import (
	"context"

	"pollbox/internal/domain/poll"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
)

type PostgresVoteRepository struct {
	db DBTX
}

func NewVoteRepository(db DBTX) VoteRepository {
	return &PostgresVoteRepository{db: db}
}

func (r *PostgresVoteRepository) Insert(ctx context.Context, v *poll.Vote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO votes (id, poll_id, option_index, user_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.PollID, v.OptionIndex, toNullUUID(v.UserID), v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return pollbox_errors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// TallyByPoll returns vote counts keyed by option index. Options with no
// votes are simply absent from the map.
func (r *PostgresVoteRepository) TallyByPoll(ctx context.Context, pollID uuid.UUID) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT option_index, COUNT(*) FROM votes WHERE poll_id = $1 GROUP BY option_index`,
		pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := make(map[int]int)
	for rows.Next() {
		var index, count int
		if err := rows.Scan(&index, &count); err != nil {
			return nil, err
		}
		tallies[index] = count
	}
	return tallies, rows.Err()
}

func (r *PostgresVoteRepository) HasVoted(ctx context.Context, pollID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM votes WHERE poll_id = $1 AND user_id = $2)`,
		pollID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
