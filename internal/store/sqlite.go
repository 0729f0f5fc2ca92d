package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/nikshvein/personhub/internal/domain"
)

// createSchemaSQLite is the Postgres schema from postgres.go translated
// to SQLite syntax (INTEGER PRIMARY KEY AUTOINCREMENT instead of serial,
// no REFERENCES enforcement beyond PRAGMA foreign_keys). Column names and
// shapes match exactly so the Gateway's query logic is identical across
// both backends.
const createSchemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT UNIQUE NOT NULL,
	password TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS persons (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id       INTEGER NOT NULL REFERENCES users(id),
	name           TEXT NOT NULL,
	cord_x         INTEGER NOT NULL,
	cord_y         INTEGER NOT NULL,
	creation_date  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	height         INTEGER NOT NULL,
	weight         INTEGER NOT NULL,
	color          TEXT NOT NULL,
	country        TEXT NOT NULL,
	location_x     REAL NOT NULL,
	location_y     REAL NULL,
	location_name  TEXT NULL
);`

// OpenSQLiteForTest opens an in-process SQLite-backed Gateway rooted at
// path, for use from _test.go files only (see internal/store's tests and
// internal/collection's tests). It exercises the exact same Gateway
// query logic as production, against a schema translated to SQLite
// syntax, so persistence-layer tests don't need a live Postgres.
func OpenSQLiteForTest(path string) (*Gateway, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	g := &Gateway{db: db, dia: dialectSQLite}
	if err := g.migrate(context.Background(), createSchemaSQLite); err != nil {
		db.Close()
		return nil, err
	}
	return g, nil
}

func (g *Gateway) insertPersonSQLite(ctx context.Context, p domain.Person, locY, locName any) (int64, time.Time, error) {
	res, err := g.db.ExecContext(ctx, `
		INSERT INTO persons
			(owner_id, name, cord_x, cord_y,
			 height, weight, color, country, location_x, location_y, location_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.OwnerID, p.Name, p.Coordinates.X, p.Coordinates.Y,
		p.Height, p.Weight, string(p.HairColor), string(p.Nationality),
		p.Location.X, locY, locName,
	)
	if err != nil {
		return 0, time.Time{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, time.Time{}, err
	}

	var created anyTime
	err = g.db.QueryRowContext(ctx, `SELECT creation_date FROM persons WHERE id = ?`, id).Scan(&created)
	if err != nil {
		return 0, time.Time{}, err
	}
	return id, created.Time, nil
}

func (g *Gateway) insertUserSQLite(ctx context.Context, username, passwordHash string) (int64, error) {
	res, err := g.db.ExecContext(ctx,
		`INSERT INTO users (username, password) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func isSQLiteConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}

// anyTime scans either a time.Time (as the Postgres driver returns for
// timestamp columns) or a string/[]byte (as SQLite returns) into a
// time.Time, so scanPerson in gateway.go works unmodified against
// either backend.
type anyTime struct {
	Time time.Time
}

func (a *anyTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		a.Time = v
		return nil
	case string:
		return a.parse(v)
	case []byte:
		return a.parse(string(v))
	case nil:
		return nil
	default:
		return fmt.Errorf("anyTime: unsupported scan source %T", src)
	}
}

func (a *anyTime) parse(s string) error {
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
		time.RFC3339,
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			a.Time = t
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("anyTime: parse %q: %w", s, lastErr)
}
