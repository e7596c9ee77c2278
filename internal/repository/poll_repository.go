package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pollbox/internal/domain/poll"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
)

type PostgresPollRepository struct {
	db DBTX
}

func NewPollRepository(db DBTX) PollRepository {
	return &PostgresPollRepository{db: db}
}

// Create inserts the poll row and its options in one transaction so a poll
// can never exist with fewer options than it was validated with.
func (r *PostgresPollRepository) Create(ctx context.Context, p *poll.Poll) error {
	return WithTx(ctx, r.db, func(tx DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO polls (id, user_id, question, created_at) VALUES ($1, $2, $3, $4)`,
			p.ID, p.UserID, p.Question, p.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return pollbox_errors.ErrAlreadyExists
			}
			return err
		}
		return insertOptions(ctx, tx, p.ID, p.Options)
	})
}

func (r *PostgresPollRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]poll.Poll, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, question, created_at FROM polls WHERE user_id = $1 ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := make([]poll.Poll, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var p poll.Poll
		if err := rows.Scan(&p.ID, &p.UserID, &p.Question, &p.CreatedAt); err != nil {
			return nil, err
		}
		polls = append(polls, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(polls) == 0 {
		return polls, nil
	}

	optionsByPoll, err := r.optionsForPolls(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range polls {
		polls[i].Options = optionsByPoll[polls[i].ID]
	}
	return polls, nil
}

func (r *PostgresPollRepository) GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error) {
	return r.getOne(ctx,
		`SELECT id, user_id, question, created_at FROM polls WHERE id = $1`,
		id)
}

// GetByIDAndOwner returns the poll only when the requesting actor owns it.
// A poll that exists but belongs to someone else is indistinguishable from
// one that does not exist.
func (r *PostgresPollRepository) GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (poll.Poll, error) {
	return r.getOne(ctx,
		`SELECT id, user_id, question, created_at FROM polls WHERE id = $1 AND user_id = $2`,
		id, ownerID)
}

// Update rewrites the question and replaces the option set, conditioned on
// id AND owner in a single statement. Zero affected rows means the actor
// does not own the poll (or it is gone) and must not be treated as success.
func (r *PostgresPollRepository) Update(ctx context.Context, id, ownerID uuid.UUID, question string, options []string) error {
	return WithTx(ctx, r.db, func(tx DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE polls SET question = $1 WHERE id = $2 AND user_id = $3`,
			question, id, ownerID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return pollbox_errors.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM poll_options WHERE poll_id = $1`, id); err != nil {
			return err
		}

		opts := make([]poll.Option, len(options))
		for i, text := range options {
			opts[i] = poll.Option{ID: uuid.New(), PollID: id, Text: text, Position: i}
		}
		return insertOptions(ctx, tx, id, opts)
	})
}

func (r *PostgresPollRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM polls WHERE id = $1 AND user_id = $2`,
		id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pollbox_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresPollRepository) getOne(ctx context.Context, query string, args ...interface{}) (poll.Poll, error) {
	var p poll.Poll
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&p.ID, &p.UserID, &p.Question, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return poll.Poll{}, pollbox_errors.ErrNotFound
		}
		return poll.Poll{}, err
	}

	options, err := r.optionsForPolls(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return poll.Poll{}, err
	}
	p.Options = options[p.ID]
	return p, nil
}

func (r *PostgresPollRepository) optionsForPolls(ctx context.Context, pollIDs []uuid.UUID) (map[uuid.UUID][]poll.Option, error) {
	query := fmt.Sprintf(
		`SELECT id, poll_id, text, position FROM poll_options WHERE poll_id IN (%s) ORDER BY position ASC`,
		buildPlaceholders(1, len(pollIDs)))
	args := make([]interface{}, len(pollIDs))
	for i, id := range pollIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]poll.Option, len(pollIDs))
	for rows.Next() {
		var opt poll.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.Position); err != nil {
			return nil, err
		}
		result[opt.PollID] = append(result[opt.PollID], opt)
	}
	return result, rows.Err()
}

func insertOptions(ctx context.Context, tx DBTX, pollID uuid.UUID, options []poll.Option) error {
	for _, opt := range options {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO poll_options (id, poll_id, text, position) VALUES ($1, $2, $3, $4)`,
			opt.ID, pollID, opt.Text, opt.Position)
		if err != nil {
			return err
		}
	}
	return nil
}
