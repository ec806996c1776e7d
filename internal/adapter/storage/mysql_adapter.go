package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rl1809/things-api/internal/core/domain"
	"github.com/rl1809/things-api/internal/port"
)

// MySQLStore serves the things collection from a relational table that
// doubles as the document view: scalar columns for the searchable fields
// plus a JSON column for the stock list. See schema.sql.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) Collection(ctx context.Context, name string) (port.Collection, error) {
	if name != "things" {
		return nil, fmt.Errorf("%w: unknown collection %s", port.ErrUnavailable, name)
	}
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrUnavailable, err)
	}
	return &mysqlCollection{db: s.db}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

type mysqlCollection struct {
	db *sql.DB
}

const thingColumns = "id, name, category, description, available, price, stock, etag, asof"

func (c *mysqlCollection) Find(ctx context.Context, q port.Query) (port.Cursor, error) {
	query := `
		SELECT ` + thingColumns + `
		FROM things
		WHERE UPPER(name) LIKE UPPER(?) OR UPPER(description) LIKE UPPER(?)
		ORDER BY id`
	args := []any{q.Term, q.Term}

	switch {
	case q.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Skip)
	case q.Skip > 0:
		// MySQL requires a LIMIT clause before OFFSET
		query += " LIMIT 18446744073709551615 OFFSET ?"
		args = append(args, q.Skip)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query things: %w", err)
	}
	return &mysqlCursor{rows: rows}, nil
}

func (c *mysqlCollection) FindOne(ctx context.Context, id int64) (*domain.Thing, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT `+thingColumns+`
		FROM things WHERE id = ?`, id)

	thing, err := scanThing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query thing %d: %w", id, err)
	}
	return thing, nil
}

func (c *mysqlCollection) Insert(ctx context.Context, thing *domain.Thing) error {
	stock, err := json.Marshal(thing.Stock)
	if err != nil {
		return fmt.Errorf("encode stock: %w", err)
	}
	md := newTokens()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO things (name, category, description, available, price, stock, etag, asof)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		thing.Name, thing.Category, thing.Description, thing.Available,
		thing.Price, stock, md.Etag, md.Asof,
	)
	if err != nil {
		return fmt.Errorf("insert thing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}

	thing.ID = id
	thing.Metadata = md
	return nil
}

func (c *mysqlCollection) Replace(ctx context.Context, id int64, thing *domain.Thing) error {
	stock, err := json.Marshal(thing.Stock)
	if err != nil {
		return fmt.Errorf("encode stock: %w", err)
	}
	md := newTokens()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE things
		SET name = ?, category = ?, description = ?, available = ?, price = ?, stock = ?, etag = ?, asof = ?
		WHERE id = ?`,
		thing.Name, thing.Category, thing.Description, thing.Available,
		thing.Price, stock, md.Etag, md.Asof, id,
	)
	if err != nil {
		return fmt.Errorf("update thing: %w", err)
	}

	// tokens change on every write, so zero affected rows means the id
	// does not exist rather than an identical update
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}

	thing.ID = id
	thing.Metadata = md
	return nil
}

func (c *mysqlCollection) Remove(ctx context.Context, id int64) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM things WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete thing: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrNotFound
	}

	return tx.Commit()
}

type mysqlCursor struct {
	rows *sql.Rows
	err  error
}

func (c *mysqlCursor) Next() (*domain.Thing, bool) {
	if c.err != nil || !c.rows.Next() {
		return nil, false
	}
	thing, err := scanThing(c.rows)
	if err != nil {
		c.err = err
		return nil, false
	}
	return thing, true
}

func (c *mysqlCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *mysqlCursor) Close() error {
	return c.rows.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThing(row rowScanner) (*domain.Thing, error) {
	var (
		thing domain.Thing
		stock []byte
	)
	err := row.Scan(
		&thing.ID, &thing.Name, &thing.Category, &thing.Description,
		&thing.Available, &thing.Price, &stock,
		&thing.Metadata.Etag, &thing.Metadata.Asof,
	)
	if err != nil {
		return nil, err
	}
	if len(stock) > 0 {
		if err := json.Unmarshal(stock, &thing.Stock); err != nil {
			return nil, fmt.Errorf("decode stock: %w", err)
		}
	}
	return &thing, nil
}
