package database

import (
	"context"
	"fmt"

	"kanalyab/internal/core/models"

	"github.com/jmoiron/sqlx"
)

const submissionColumns = `submission_id, channel_url, category_id, submitted_by_email, submitted_at, status`

// SubmissionURLTaken reports whether channelURL is pending review, was
// approved, or is the canonical url of a stored channel. Approved submissions
// count because approval stores the channel under its canonical url, not the
// url that was submitted.
func (s *DBStore) SubmissionURLTaken(ctx context.Context, channelURL string) (bool, error) {
	var taken bool
	query := `SELECT
		EXISTS (SELECT 1 FROM submissions WHERE channel_url = $1 AND status IN ('Pending', 'Approved'))
		OR EXISTS (SELECT 1 FROM channels WHERE channel_url = $1)`
	if err := s.db.GetContext(ctx, &taken, query, channelURL); err != nil {
		return false, fmt.Errorf("check submission url: %w", err)
	}
	return taken, nil
}

// CreateSubmission inserts sub and fills in its id. A second pending row for
// the same url fails with ErrDuplicateURL.
func (s *DBStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	query := `INSERT INTO submissions (channel_url, category_id, submitted_by_email, submitted_at, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING submission_id`
	err := s.db.QueryRowxContext(ctx, query,
		sub.ChannelURL, sub.CategoryID, sub.SubmittedByEmail, sub.SubmittedAt, sub.Status).Scan(&sub.ID)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return ErrDuplicateURL
		case IsForeignKeyViolation(err):
			return ErrBadReference
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetSubmission returns one submission or ErrNotFound.
func (s *DBStore) GetSubmission(ctx context.Context, id int) (*models.Submission, error) {
	var sub models.Submission
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE submission_id = $1`
	if err := s.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

// ListSubmissions returns submissions in the given status, newest first.
func (s *DBStore) ListSubmissions(ctx context.Context, status models.SubmissionStatus) ([]models.Submission, error) {
	subs := []models.Submission{}
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = $1 ORDER BY submitted_at DESC, submission_id DESC`
	if err := s.db.SelectContext(ctx, &subs, query, status); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// UpdateSubmissionStatus moves a submission from one status to another. It
// fails with ErrNotPending if the row is no longer in from.
func (s *DBStore) UpdateSubmissionStatus(ctx context.Context, id int, from, to models.SubmissionStatus) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return transitionSubmission(ctx, tx, id, from, to)
	})
}

func transitionSubmission(ctx context.Context, tx *sqlx.Tx, id int, from, to models.SubmissionStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE submissions SET status = $1 WHERE submission_id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM submissions WHERE submission_id = $1)`, id); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNotPending
}

// ApproveSubmission inserts ch and marks the submission Approved in a single
// transaction. The channel primary key is the duplicate check of record: a
// concurrent approval of the same channel fails with ErrChannelExists and
// nothing is written.
func (s *DBStore) ApproveSubmission(ctx context.Context, submissionID int, ch models.Channel) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `INSERT INTO channels (` + channelColumns + `)
			VALUES (:channel_id, :title, :description, :channel_url, :published_at, :avatar, :banner_image,
				:subscriber_count, :video_count, :view_count, :tags, :category_id, :last_updated_at, :is_vip)`
		if _, err := tx.NamedExecContext(ctx, query, ch); err != nil {
			switch {
			case IsUniqueViolation(err):
				return ErrChannelExists
			case IsForeignKeyViolation(err):
				return ErrBadReference
			}
			return fmt.Errorf("insert channel: %w", err)
		}
		return transitionSubmission(ctx, tx, submissionID, models.StatusPending, models.StatusApproved)
	})
}

// DeleteSubmission removes a submission row.
func (s *DBStore) DeleteSubmission(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE submission_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return expectOneRow(res)
}
