package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"salespulse/internal/config"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// ErrDuplicateFile is returned by SaveFile when a file with the same content
// hash was stored before.
var ErrDuplicateFile = errors.New("file already uploaded")

// Store persists source files and sales transactions in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, logger: infrastructure.WithComponent(logger, "storage")}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Info("database ready", slog.String("path", path))
	return s, nil
}

func dsn(path string, cfg config.StorageConfig) string {
	pragmas := []string{"_pragma=foreign_keys(1)"}
	if cfg.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	}
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=journal_mode(%s)", cfg.JournalMode))
	}
	return "file:" + path + "?" + strings.Join(pragmas, "&")
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FileExists reports whether a file with this content hash was stored.
func (s *Store) FileExists(ctx context.Context, hash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM source_files WHERE file_hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check file hash: %w", err)
	}
	return n > 0, nil
}

// SaveFile records an uploaded file. ID and UploadedAt are filled in when
// empty. A hash seen before yields ErrDuplicateFile.
func (s *Store) SaveFile(ctx context.Context, f *domain.SourceFile) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO source_files (id, file_name, file_hash, size, stored_path, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_hash) DO NOTHING`,
		f.ID, f.FileName, f.FileHash, f.Size, f.StoredPath, f.UploadedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert source file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert source file: %w", err)
	}
	if n == 0 {
		return ErrDuplicateFile
	}
	return nil
}

// InsertTransactions writes txs in one database transaction, silently
// skipping rows whose (bill_no, date, item_name) already exists. It returns
// the number of rows actually inserted.
func (s *Store) InsertTransactions(ctx context.Context, fileID string, txs []domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	ctx, span := infrastructure.Tracer("storage").Start(ctx, "storage.insert_transactions",
		trace.WithAttributes(attribute.Int("rows", len(txs))))
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO sales_transactions (`+strings.Join(columnNames, ", ")+`)
		VALUES (`+placeholders(len(columnNames))+`)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range txs {
		res, err := stmt.ExecContext(ctx, append(rowValues(&txs[i]), fileID)...)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	if ignored := len(txs) - inserted; ignored > 0 {
		s.logger.DebugContext(ctx, "existing transactions ignored", slog.Int("ignored", ignored))
	}
	return inserted, nil
}

// Filter narrows ListTransactions. Zero values mean no constraint.
type Filter struct {
	From   time.Time
	To     time.Time
	Area   string
	Limit  int
	Offset int
}

func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.Format(domain.DateLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.Format(domain.DateLayout))
	}
	if f.Area != "" {
		conds = append(conds, "area = ?")
		args = append(args, f.Area)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListTransactions returns stored transactions ordered by date then id.
func (s *Store) ListTransactions(ctx context.Context, f Filter) ([]domain.Transaction, error) {
	where, args := f.where()
	q := `SELECT ` + strings.Join(domain.CanonicalFields, ", ") + ` FROM sales_transactions` + where + ` ORDER BY date, id`
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// CountTransactions counts the rows matching f, ignoring its paging.
func (s *Store) CountTransactions(ctx context.Context, f Filter) (int, error) {
	where, args := f.where()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sales_transactions`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// ListFiles returns every stored source file, newest first.
func (s *Store) ListFiles(ctx context.Context) ([]domain.SourceFile, error) {
	return listFiles(ctx, s.db)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listFiles(ctx context.Context, q querier) ([]domain.SourceFile, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, file_name, file_hash, size, stored_path, uploaded_at
		FROM source_files ORDER BY uploaded_at DESC, file_name`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SourceFile, 0)
	for rows.Next() {
		var (
			f        domain.SourceFile
			uploaded string
		)
		if err := rows.Scan(&f.ID, &f.FileName, &f.FileHash, &f.Size, &f.StoredPath, &uploaded); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploaded)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Stats summarizes what is stored.
type Stats struct {
	Transactions int       `json:"transactions"`
	Files        int       `json:"files"`
	FirstDate    time.Time `json:"first_date"`
	LastDate     time.Time `json:"last_date"`
}

// Stats returns row counts and the stored date range.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var (
		st          Stats
		first, last sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(1) FROM sales_transactions),
			(SELECT COUNT(1) FROM source_files),
			(SELECT MIN(date) FROM sales_transactions),
			(SELECT MAX(date) FROM sales_transactions)`).Scan(&st.Transactions, &st.Files, &first, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	if first.Valid {
		st.FirstDate, _ = time.Parse(domain.DateLayout, first.String)
	}
	if last.Valid {
		st.LastDate, _ = time.Parse(domain.DateLayout, last.String)
	}
	return st, nil
}

// ClearResult reports what Clear removed.
type ClearResult struct {
	Transactions int64
	Files        []domain.SourceFile
}

// Clear deletes every transaction and source file row. The removed file rows
// are returned so their stored bytes can be deleted too.
func (s *Store) Clear(ctx context.Context) (ClearResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ClearResult{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	files, err := listFiles(ctx, tx)
	if err != nil {
		return ClearResult{}, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sales_transactions`)
	if err != nil {
		return ClearResult{}, fmt.Errorf("delete transactions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return ClearResult{}, fmt.Errorf("delete transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM source_files`); err != nil {
		return ClearResult{}, fmt.Errorf("delete files: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return ClearResult{}, fmt.Errorf("commit: %w", err)
	}

	s.logger.InfoContext(ctx, "storage cleared",
		slog.Int64("transactions", deleted),
		slog.Int("files", len(files)))
	return ClearResult{Transactions: deleted, Files: files}, nil
}
