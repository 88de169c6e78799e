package openingstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/RedBe-an/OpenChess/internal/domain"
	"github.com/RedBe-an/OpenChess/internal/slug"
)

// Dialect selects the SQL flavour.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// Open connects to the database named by rawURL. postgres:// and postgresql:// use lib/pq;
// sqlite:// (or sqlite3://) and file: use go-sqlite3.
func Open(ctx context.Context, rawURL string) (*sql.DB, Dialect, error) {
	dialect, dsn, err := parseURL(rawURL)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, dialect, nil
}

func parseURL(rawURL string) (Dialect, string, error) {
	raw := strings.TrimSpace(rawURL)
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres, raw, nil
	case strings.HasPrefix(lower, "sqlite3://"):
		return DialectSQLite, raw[len("sqlite3://"):], nil
	case strings.HasPrefix(lower, "sqlite://"):
		return DialectSQLite, raw[len("sqlite://"):], nil
	case strings.HasPrefix(lower, "file:"):
		return DialectSQLite, raw, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", rawURL)
	}
}

type sqlRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLRepository returns a Repository over db.
func NewSQLRepository(db *sql.DB, dialect Dialect) Repository {
	return &sqlRepository{db: db, dialect: dialect}
}

// EnsureSchema creates the openings table and its indexes when missing.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	id := "BIGSERIAL PRIMARY KEY"
	if dialect == DialectSQLite {
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS openings (
			id ` + id + `,
			eco TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			url_slug TEXT NOT NULL,
			pgn TEXT NOT NULL UNIQUE,
			content_ref TEXT,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS openings_url_slug_idx ON openings (url_slug)`,
		`CREATE INDEX IF NOT EXISTS openings_name_idx ON openings (LOWER(name))`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const selectColumns = `SELECT eco, name, url_slug, pgn, content_ref FROM openings`

func scanInfo(row interface{ Scan(...any) error }) (*domain.OpeningInfo, error) {
	var (
		info       domain.OpeningInfo
		contentRef sql.NullString
	)
	if err := row.Scan(&info.ECOCode, &info.Name, &info.URLSlug, &info.MovesNotation, &contentRef); err != nil {
		return nil, err
	}
	info.ContentRef = contentRef.String
	return &info, nil
}

func (r *sqlRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.OpeningInfo, error) {
	info, err := scanInfo(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (r *sqlRepository) FindBySlug(ctx context.Context, s string) (*domain.OpeningInfo, error) {
	info, err := r.queryOne(ctx, selectColumns+` WHERE url_slug = $1 ORDER BY LENGTH(pgn), id LIMIT 1`, slug.Normalize(s))
	if err != nil {
		return nil, fmt.Errorf("find opening by slug: %w", err)
	}
	return info, nil
}

func (r *sqlRepository) FindByName(ctx context.Context, name string) (*domain.OpeningInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	info, err := r.queryOne(ctx, selectColumns+` WHERE LOWER(name) = LOWER($1) ORDER BY LENGTH(pgn), id LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("find opening by name: %w", err)
	}
	return info, nil
}

func (r *sqlRepository) Search(ctx context.Context, term string, limit int) ([]*domain.OpeningInfo, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"
	rows, err := r.db.QueryContext(ctx,
		selectColumns+` WHERE LOWER(name) LIKE $1 ESCAPE '\' ORDER BY eco, name LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search openings: %w", err)
	}
	defer rows.Close()

	var out []*domain.OpeningInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opening: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search openings: %w", err)
	}
	return out, nil
}

func (r *sqlRepository) Upsert(ctx context.Context, info *domain.OpeningInfo) error {
	if err := validate(info); err != nil {
		return err
	}
	urlSlug := info.URLSlug
	if strings.TrimSpace(urlSlug) == "" {
		urlSlug = info.Name
	}
	const query = `
		INSERT INTO openings (eco, name, url_slug, pgn, content_ref, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		ON CONFLICT (pgn) DO UPDATE SET
			eco = excluded.eco,
			name = excluded.name,
			url_slug = excluded.url_slug,
			content_ref = COALESCE(excluded.content_ref, openings.content_ref),
			updated_at = CURRENT_TIMESTAMP`
	var contentRef sql.NullString
	if ref := strings.TrimSpace(info.ContentRef); ref != "" {
		contentRef = sql.NullString{String: ref, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		strings.TrimSpace(info.ECOCode),
		strings.TrimSpace(info.Name),
		slug.Normalize(urlSlug),
		strings.TrimSpace(info.MovesNotation),
		contentRef,
	)
	if err != nil {
		return fmt.Errorf("upsert opening: %w", err)
	}
	return nil
}

func (r *sqlRepository) SetContentRef(ctx context.Context, s, ref string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE openings SET content_ref = $1, updated_at = CURRENT_TIMESTAMP WHERE url_slug = $2`,
		ref, slug.Normalize(s))
	if err != nil {
		return 0, fmt.Errorf("set content ref: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set content ref: %w", err)
	}
	return n, nil
}

func (r *sqlRepository) Count(ctx context.Context) (Stats, error) {
	var st Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN content_ref IS NOT NULL AND content_ref <> '' THEN 1 END)
		FROM openings`).Scan(&st.Total, &st.WithContent)
	if err != nil {
		return Stats{}, fmt.Errorf("count openings: %w", err)
	}
	st.WithoutContent = st.Total - st.WithContent
	return st, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
