package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// ErrTitleInUse is returned when a title is already claimed by a
// different user in the same chat.
var ErrTitleInUse = errors.New("title already in use")

// TitleStore defines the bidirectional title index operations.
// Methods accept context.Context for cancellation and timeouts. Every
// mutation writes or removes the forward and reverse keys together in a
// single transaction, so concurrent commands for different users in the
// same chat cannot tear a record apart.
type TitleStore interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// InsertTitle claims a title for a user. It fails with ErrTitleInUse
	// when the title maps to a different user in that chat; otherwise it
	// removes any prior record for the user and writes both key sides.
	InsertTitle(ctx context.Context, chatID, userID int64, title string) error

	// GetByUser returns the record for (chat, user), or nil when absent.
	GetByUser(ctx context.Context, chatID, userID int64) (*TitleRecord, error)

	// GetByTitle returns the record for (chat, title), or nil when absent.
	GetByTitle(ctx context.Context, chatID int64, title string) (*TitleRecord, error)

	// RemoveByUser deletes the record for (chat, user) and its reverse
	// key. Removing a non-existent record is a no-op success.
	RemoveByUser(ctx context.Context, chatID, userID int64) error

	// RemoveByTitle deletes the record for (chat, title) and its forward
	// key. Removing a non-existent record is a no-op success.
	RemoveByTitle(ctx context.Context, chatID int64, title string) error

	// ListByChat returns all records for one chat, in stable key order.
	ListByChat(ctx context.Context, chatID int64) ([]TitleRecord, error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of TitleStore using sqlx over a
// single key-value table.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new TitleStore implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) TitleStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "title_store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// get fetches a raw value by key within a queryer. Absence is reported
// as found=false, not as an error.
func get(ctx context.Context, q sqlx.QueryerContext, key []byte) (value []byte, found bool, err error) {
	row := q.QueryRowxContext(ctx, `SELECT v FROM titles_kv WHERE k = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *sqlxStore) InsertTitle(ctx context.Context, chatID, userID int64, title string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for title insert",
			"chat_id", chatID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	// Reject a title held by someone else in this chat.
	if v, found, err := get(ctx, tx, titleKey(chatID, title)); err != nil {
		return err
	} else if found {
		holder, err := decodeUserID(v)
		if err != nil {
			return fmt.Errorf("corrupt title index for chat %d: %w", chatID, err)
		}
		if holder != userID {
			return fmt.Errorf("%w: %q", ErrTitleInUse, title)
		}
	}

	// Claiming a new title replaces any prior record for this user:
	// no in-place rename, delete-then-recreate only.
	if v, found, err := get(ctx, tx, userKey(chatID, userID)); err != nil {
		return err
	} else if found {
		if err := deletePair(ctx, tx, userKey(chatID, userID), titleKey(chatID, string(v))); err != nil {
			return err
		}
	}

	for _, kv := range []struct{ k, v []byte }{
		{userKey(chatID, userID), []byte(title)},
		{titleKey(chatID, title), encodeUserID(userID)},
	} {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO titles_kv (k, v) VALUES (?, ?)`, kv.k, kv.v); err != nil {
			s.logger.ErrorContext(ctx, "Error writing title record",
				"chat_id", chatID, "user_id", userID, "error", err)
			return fmt.Errorf("failed to write title record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit title insert",
			"chat_id", chatID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Title record saved", "chat_id", chatID, "user_id", userID, "title", title)
	return nil
}

func (s *sqlxStore) GetByUser(ctx context.Context, chatID, userID int64) (*TitleRecord, error) {
	v, found, err := get(ctx, s.db, userKey(chatID, userID))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error reading title by user", "chat_id", chatID, "user_id", userID, "error", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &TitleRecord{ChatID: chatID, UserID: userID, Title: string(v)}, nil
}

func (s *sqlxStore) GetByTitle(ctx context.Context, chatID int64, title string) (*TitleRecord, error) {
	v, found, err := get(ctx, s.db, titleKey(chatID, title))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error reading title by name", "chat_id", chatID, "title", title, "error", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	userID, err := decodeUserID(v)
	if err != nil {
		return nil, fmt.Errorf("corrupt title index for chat %d: %w", chatID, err)
	}
	return &TitleRecord{ChatID: chatID, UserID: userID, Title: title}, nil
}

func (s *sqlxStore) RemoveByUser(ctx context.Context, chatID, userID int64) error {
	return s.removePair(ctx, chatID, func(ctx context.Context, tx *sqlx.Tx) ([2][]byte, bool, error) {
		v, found, err := get(ctx, tx, userKey(chatID, userID))
		if err != nil || !found {
			return [2][]byte{}, false, err
		}
		return [2][]byte{userKey(chatID, userID), titleKey(chatID, string(v))}, true, nil
	})
}

func (s *sqlxStore) RemoveByTitle(ctx context.Context, chatID int64, title string) error {
	return s.removePair(ctx, chatID, func(ctx context.Context, tx *sqlx.Tx) ([2][]byte, bool, error) {
		v, found, err := get(ctx, tx, titleKey(chatID, title))
		if err != nil || !found {
			return [2][]byte{}, false, err
		}
		userID, err := decodeUserID(v)
		if err != nil {
			return [2][]byte{}, false, fmt.Errorf("corrupt title index for chat %d: %w", chatID, err)
		}
		return [2][]byte{userKey(chatID, userID), titleKey(chatID, title)}, true, nil
	})
}

// removePair resolves both sides of a record inside one transaction and
// deletes them together. Absence short-circuits to success.
func (s *sqlxStore) removePair(ctx context.Context, chatID int64, resolve func(context.Context, *sqlx.Tx) ([2][]byte, bool, error)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for title removal", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	keys, found, err := resolve(ctx, tx)
	if err != nil {
		return err
	}
	if !found {
		// Idempotent: nothing to remove.
		return nil
	}

	if err := deletePair(ctx, tx, keys[0], keys[1]); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit title removal", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Title record removed", "chat_id", chatID)
	return nil
}

func deletePair(ctx context.Context, tx *sqlx.Tx, k1, k2 []byte) error {
	for _, k := range [][]byte{k1, k2} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM titles_kv WHERE k = ?`, k); err != nil {
			return fmt.Errorf("failed to delete key %q: %w", k, err)
		}
	}
	return nil
}

func (s *sqlxStore) ListByChat(ctx context.Context, chatID int64) ([]TitleRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Lexicographic range scan over the forward-key namespace. The
	// upper bound increments the trailing '$' of the prefix, so keys of
	// every other chat fall outside the range.
	lower := []byte(userKeyPrefix(chatID))
	upper := make([]byte, len(lower))
	copy(upper, lower)
	upper[len(upper)-1]++

	rows, err := s.db.QueryxContext(ctx,
		`SELECT k, v FROM titles_kv WHERE k >= ? AND k < ? ORDER BY k`, lower, upper)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error scanning titles for chat", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to scan titles for chat %d: %w", chatID, err)
	}
	defer rows.Close()

	var records []TitleRecord
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan title row: %w", err)
		}
		record, err := parseUserKey(k, v)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan titles for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Listed titles", "chat_id", chatID, "count", len(records))
	return records, nil
}

// RunMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
