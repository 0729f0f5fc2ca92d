// Package store is the persistence gateway (C4): a process-wide handle to
// the SQL database, exposing parameterized statements only. Production
// traffic uses Postgres (see postgres.go); package-local tests use an
// in-process SQLite backend (see sqlite.go) that runs the exact same
// Gateway code against a schema translated to SQLite syntax.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nikshvein/personhub/internal/domain"
	"github.com/nikshvein/personhub/internal/errs"
)

// dialect captures the handful of syntax differences between the
// production Postgres schema and the SQLite test backend.
type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// Gateway is the persistence gateway. The zero value is not usable; call
// OpenPostgres or OpenSQLiteForTest.
type Gateway struct {
	db  *sql.DB
	dia dialect
}

// Close releases the underlying connection pool.
func (g *Gateway) Close() error {
	if g == nil || g.db == nil {
		return nil
	}
	return g.db.Close()
}

// ping re-dials by issuing a fresh Ping; database/sql already reopens
// dead connections transparently from its pool, so this only surfaces a
// hard failure as errs.ErrStoreUnavailable instead of letting a raw
// driver error leak past this layer.
func (g *Gateway) ping(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}
	return nil
}

// placeholder returns the dialect-appropriate positional parameter
// marker for the nth (1-based) bound argument.
func (g *Gateway) placeholder(n int) string {
	if g.dia == dialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// FindAllPersons returns every Person ordered by id ascending.
func (g *Gateway) FindAllPersons(ctx context.Context) ([]domain.Person, error) {
	if err := g.ping(ctx); err != nil {
		return nil, err
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT id, owner_id, name, cord_x, cord_y, creation_date,
		       height, weight, color, country,
		       location_x, location_y, location_name
		FROM persons
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query persons: %v", errs.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan person: %v", errs.ErrStoreUnavailable, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate persons: %v", errs.ErrStoreUnavailable, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(r rowScanner) (domain.Person, error) {
	var p domain.Person
	var locY sql.NullFloat64
	var locName sql.NullString
	var created anyTime

	err := r.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Coordinates.X, &p.Coordinates.Y, &created,
		&p.Height, &p.Weight, &p.HairColor, &p.Nationality,
		&p.Location.X, &locY, &locName,
	)
	if err != nil {
		return p, err
	}
	p.CreationDate = created.Time
	if locY.Valid {
		p.Location.HasY = true
		p.Location.Y = locY.Float64
	}
	p.Location.Name = locName.String
	return p, nil
}

// SavePerson inserts a Person without an id and returns it with the
// store-assigned id and creation date populated. Any client-supplied id
// is ignored per the store-assigned-id invariant.
func (g *Gateway) SavePerson(ctx context.Context, p domain.Person) (domain.Person, error) {
	if err := g.ping(ctx); err != nil {
		return domain.Person{}, err
	}

	var locY any
	if p.Location.HasY {
		locY = p.Location.Y
	}
	var locName any
	if p.Location.Name != "" {
		locName = p.Location.Name
	}

	id, createdAt, err := g.insertPerson(ctx, p, locY, locName)
	if err != nil {
		if isConstraintViolation(err) {
			return domain.Person{}, fmt.Errorf("%w: %v", errs.ErrConstraintViolation, err)
		}
		return domain.Person{}, fmt.Errorf("%w: insert person: %v", errs.ErrStoreUnavailable, err)
	}

	p.ID = id
	p.CreationDate = createdAt
	return p, nil
}

// RemovePersonByID deletes the person with the given id and reports
// whether a row was actually removed.
func (g *Gateway) RemovePersonByID(ctx context.Context, id int64) (bool, error) {
	if err := g.ping(ctx); err != nil {
		return false, err
	}

	res, err := g.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM persons WHERE id = %s", g.placeholder(1)), id)
	if err != nil {
		return false, fmt.Errorf("%w: delete person: %v", errs.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", errs.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// FindUserByUsername returns the user with the given username, or nil if
// none exists.
func (g *Gateway) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := g.ping(ctx); err != nil {
		return nil, err
	}

	var u domain.User
	err := g.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, username, password FROM users WHERE username = %s", g.placeholder(1)),
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select user: %v", errs.ErrStoreUnavailable, err)
	}
	return &u, nil
}

// ExistsUserByUsername reports whether a user with the given username
// already exists.
func (g *Gateway) ExistsUserByUsername(ctx context.Context, username string) (bool, error) {
	user, err := g.FindUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// SaveUser inserts a new user with the given username and password
// hash. It fails with errs.ErrDuplicateUser if the username is taken.
func (g *Gateway) SaveUser(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if err := g.ping(ctx); err != nil {
		return nil, err
	}

	id, err := g.insertUser(ctx, username, passwordHash)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("%w: username %q already exists", errs.ErrDuplicateUser, username)
		}
		return nil, fmt.Errorf("%w: insert user: %v", errs.ErrStoreUnavailable, err)
	}
	return &domain.User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}
