package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kanalyab/internal/core/models"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound      = errors.New("database: record not found")
	ErrChannelExists = errors.New("database: channel already exists")
	ErrDuplicateURL  = errors.New("database: channel url already pending")
	ErrCategoryInUse = errors.New("database: category is referenced")
	ErrNotPending    = errors.New("database: submission is not pending")
	ErrBadReference  = errors.New("database: referenced record does not exist")
)

const (
	connectAttempts = 5
	connectInterval = 2 * time.Second

	// RecentVideoLimit caps the videos returned with a channel.
	RecentVideoLimit = 5

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ListChannelsParams holds search, filter and sort options for ListChannels.
type ListChannelsParams struct {
	Search     string
	CategoryID int
	VIPOnly    bool
	Sort       string // "subscribers" (default), "views", "videos", "newest", "title"
	Limit      int
	Offset     int
}

// Store defines every database operation the application uses.
type Store interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	CategoryExists(ctx context.Context, id int) (bool, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c models.Category) error
	DeleteCategory(ctx context.Context, id int) error

	ChannelExists(ctx context.Context, id string) (bool, error)
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	ListChannels(ctx context.Context, params ListChannelsParams) ([]models.Channel, error)
	CountChannels(ctx context.Context, params ListChannelsParams) (int, error)
	AllChannels(ctx context.Context) ([]models.Channel, error)
	UpdateChannelDetails(ctx context.Context, ch models.Channel) error
	SetChannelVIP(ctx context.Context, id string, vip bool) error
	DeleteChannel(ctx context.Context, id string) error
	ApplyRefresh(ctx context.Context, updates []models.ChannelRefresh) error

	SubmissionURLTaken(ctx context.Context, channelURL string) (bool, error)
	CreateSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, id int) (*models.Submission, error)
	ListSubmissions(ctx context.Context, status models.SubmissionStatus) ([]models.Submission, error)
	UpdateSubmissionStatus(ctx context.Context, id int, from, to models.SubmissionStatus) error
	ApproveSubmission(ctx context.Context, submissionID int, ch models.Channel) error
	DeleteSubmission(ctx context.Context, id int) error

	Ping(ctx context.Context) error
	Close() error
}

// DBStore implements Store on PostgreSQL.
type DBStore struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

var _ Store = (*DBStore)(nil)

// NewDBStore connects to the database, retrying while it comes up.
func NewDBStore(ctx context.Context, databaseURL string, logger zerolog.Logger) (*DBStore, error) {
	var (
		db  *sqlx.DB
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = sqlx.ConnectContext(ctx, "pgx", databaseURL)
		if err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", attempt).Int("max", connectAttempts).Msg("database connection attempt failed")
		if attempt < connectAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectInterval):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	logger.Info().Msg("successfully connected to the database")
	return &DBStore{db: db, logger: logger}, nil
}

// Ping checks connectivity.
func (s *DBStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *DBStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *DBStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
