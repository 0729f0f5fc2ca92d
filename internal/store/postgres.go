package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/nikshvein/personhub/internal/domain"
)

const createSchemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	id       serial PRIMARY KEY,
	username text UNIQUE NOT NULL,
	password text NOT NULL
);

CREATE TABLE IF NOT EXISTS persons (
	id             serial PRIMARY KEY,
	owner_id       bigint NOT NULL REFERENCES users(id),
	name           text NOT NULL,
	cord_x         int NOT NULL,
	cord_y         int NOT NULL,
	creation_date  timestamp DEFAULT now(),
	height         int NOT NULL,
	weight         int NOT NULL,
	color          text NOT NULL,
	country        text NOT NULL,
	location_x     float NOT NULL,
	location_y     float NULL,
	location_name  text NULL
);`

// PostgresDSN builds a libpq-style connection string from the
// environment variables named in the external interface: DB_HOST,
// DB_PORT, DB_NAME, DB_USER, DB_PASSWORD.
func PostgresDSN(host, port, name, user, password string) string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		host, port, name, user, password)
}

// OpenPostgres opens the production persistence gateway against a
// Postgres database reachable at dsn, and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*Gateway, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	g := &Gateway{db: db, dia: dialectPostgres}
	if err := g.migrate(ctx, createSchemaPostgres); err != nil {
		db.Close()
		return nil, err
	}
	return g, nil
}

func (g *Gateway) migrate(ctx context.Context, ddl string) error {
	if _, err := g.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (g *Gateway) insertPerson(ctx context.Context, p domain.Person, locY, locName any) (int64, time.Time, error) {
	if g.dia == dialectPostgres {
		var id int64
		var created time.Time
		err := g.db.QueryRowContext(ctx, `
			INSERT INTO persons
				(owner_id, name, cord_x, cord_y,
				 height, weight, color, country, location_x, location_y, location_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, creation_date`,
			p.OwnerID, p.Name, p.Coordinates.X, p.Coordinates.Y,
			p.Height, p.Weight, string(p.HairColor), string(p.Nationality),
			p.Location.X, locY, locName,
		).Scan(&id, &created)
		return id, created, err
	}
	return g.insertPersonSQLite(ctx, p, locY, locName)
}

func (g *Gateway) insertUser(ctx context.Context, username, passwordHash string) (int64, error) {
	if g.dia == dialectPostgres {
		var id int64
		err := g.db.QueryRowContext(ctx,
			`INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id`,
			username, passwordHash,
		).Scan(&id)
		return id, err
	}
	return g.insertUserSQLite(ctx, username, passwordHash)
}

// isConstraintViolation recognises the unique-violation errors that both
// supported drivers can return from an INSERT.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return isSQLiteConstraintViolation(err)
}
