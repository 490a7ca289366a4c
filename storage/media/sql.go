package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/indieinfra/hydrogen/config"
	"github.com/indieinfra/hydrogen/storage/util"
)

type placeholderStyle int

const (
	placeholderQuestion placeholderStyle = iota
	placeholderDollar
)

type dialect struct {
	driverName  string
	placeholder placeholderStyle
	idColumn    string
	returning   bool
}

var dialects = map[string]dialect{
	"postgres": {driverName: "pgx", placeholder: placeholderDollar, idColumn: "id BIGSERIAL PRIMARY KEY", returning: true},
	"mysql":    {driverName: "mysql", placeholder: placeholderQuestion, idColumn: "id BIGINT AUTO_INCREMENT PRIMARY KEY"},
	"sqlite":   {driverName: "sqlite", placeholder: placeholderQuestion, idColumn: "id INTEGER PRIMARY KEY AUTOINCREMENT"},
}

const recordColumns = "id, filename, content_type, external_id, external_url"

type SQLStore struct {
	cfg     *config.SQLStore
	db      *sql.DB
	table   string
	dialect dialect
}

func NewSQLStore(cfg *config.SQLStore) (*SQLStore, error) {
	store, err := newSQLStoreWithDB(cfg, nil)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(store.dialect.driverName, cfg.DSN)
	if err != nil {
		return nil, err
	}

	store.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func newSQLStoreWithDB(cfg *config.SQLStore, db *sql.DB) (*SQLStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("media sql config is nil")
	}

	d, err := resolveDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	prefix := "hydrogen"
	if cfg.TablePrefix != nil {
		prefix = *cfg.TablePrefix
	}

	return &SQLStore{
		cfg:     cfg,
		db:      db,
		table:   util.DeriveTableName(prefix, "media"),
		dialect: d,
	}, nil
}

func resolveDialect(driver string) (dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}

	return d, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.schemaQuery())
	return err
}

func (s *SQLStore) schemaQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
%s,
filename VARCHAR(255) NOT NULL,
content_type VARCHAR(255) NOT NULL,
external_id VARCHAR(255) NULL,
external_url TEXT NULL,
created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, s.table, s.dialect.idColumn)
}

func (s *SQLStore) Create(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}

	args := []any{rec.Filename, rec.ContentType, nullable(rec.ExternalID), nullable(rec.ExternalURL)}

	if s.dialect.returning {
		row := s.db.QueryRowContext(ctx, s.insertQuery(), args...)
		if err := row.Scan(&rec.ID); err != nil {
			return fmt.Errorf("insert media record: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, s.insertQuery(), args...)
	if err != nil {
		return fmt.Errorf("insert media record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted media id: %w", err)
	}

	rec.ID = id
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, s.selectQuery(), id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return rec, nil
}

func (s *SQLStore) Pending(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, s.pendingQuery())
	if err != nil {
		return nil, fmt.Errorf("query pending media: %w", err)
	}
	defer rows.Close()

	out := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *SQLStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}

	_, err := s.db.ExecContext(ctx, s.updateQuery(),
		rec.Filename, rec.ContentType, nullable(rec.ExternalID), nullable(rec.ExternalURL), rec.ID)
	if err != nil {
		return fmt.Errorf("update media record %d: %w", rec.ID, err)
	}

	return nil
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec         Record
		externalID  sql.NullString
		externalURL sql.NullString
	)

	if err := row.Scan(&rec.ID, &rec.Filename, &rec.ContentType, &externalID, &externalURL); err != nil {
		return nil, err
	}

	if externalID.Valid {
		rec.ExternalID = &externalID.String
	}
	if externalURL.Valid {
		rec.ExternalURL = &externalURL.String
	}

	return &rec, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (s *SQLStore) insertQuery() string {
	query := fmt.Sprintf(
		"INSERT INTO %s (filename, content_type, external_id, external_url) VALUES (%s, %s, %s, %s)",
		s.table,
		s.placeholderFor(1),
		s.placeholderFor(2),
		s.placeholderFor(3),
		s.placeholderFor(4),
	)

	if s.dialect.returning {
		query += " RETURNING id"
	}

	return query
}

func (s *SQLStore) updateQuery() string {
	return fmt.Sprintf(
		"UPDATE %s SET filename = %s, content_type = %s, external_id = %s, external_url = %s, updated_at = CURRENT_TIMESTAMP WHERE id = %s",
		s.table,
		s.placeholderFor(1),
		s.placeholderFor(2),
		s.placeholderFor(3),
		s.placeholderFor(4),
		s.placeholderFor(5),
	)
}

func (s *SQLStore) selectQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", recordColumns, s.table, s.placeholderFor(1))
}

func (s *SQLStore) pendingQuery() string {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE external_url IS NULL AND external_id IS NOT NULL ORDER BY id",
		recordColumns,
		s.table,
	)
}

func (s *SQLStore) placeholderFor(index int) string {
	if s.dialect.placeholder == placeholderDollar {
		return fmt.Sprintf("$%d", index)
	}

	return "?"
}
