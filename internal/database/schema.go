package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist yet. Statements are ordered
// so that referenced tables exist before their foreign keys.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL,
			password   TEXT NOT NULL,
			role       TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			id          TEXT PRIMARY KEY,
			sku         TEXT NOT NULL UNIQUE,
			title       TEXT NOT NULL,
			author      TEXT NOT NULL DEFAULT '',
			category_id TEXT REFERENCES categories(id),
			publisher   TEXT NOT NULL DEFAULT '',
			price       NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS stocks (
			book_id    TEXT PRIMARY KEY REFERENCES books(id),
			quantity   INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS shelves (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS bins (
			id                 TEXT PRIMARY KEY,
			shelf_id           TEXT NOT NULL REFERENCES shelves(id),
			name               TEXT NOT NULL,
			description        TEXT NOT NULL DEFAULT '',
			quantity_current   INTEGER NOT NULL DEFAULT 0,
			quantity_max_limit INTEGER NOT NULL,
			CHECK (quantity_current >= 0 AND quantity_current <= quantity_max_limit)
		)`,
		`CREATE TABLE IF NOT EXISTS bin_contents (
			bin_id   TEXT NOT NULL REFERENCES bins(id),
			book_id  TEXT NOT NULL REFERENCES books(id),
			quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			PRIMARY KEY (bin_id, book_id)
		)`,
		`CREATE TABLE IF NOT EXISTS export_orders (
			id               TEXT PRIMARY KEY,
			status           TEXT NOT NULL,
			created_by       TEXT NOT NULL REFERENCES users(id),
			created_date     TIMESTAMPTZ NOT NULL DEFAULT now(),
			export_date      TIMESTAMPTZ,
			recipient_name   TEXT NOT NULL,
			recipient_phone  TEXT NOT NULL,
			shipping_address TEXT NOT NULL,
			note             TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS import_orders (
			id            TEXT PRIMARY KEY,
			status        TEXT NOT NULL,
			created_by    TEXT NOT NULL REFERENCES users(id),
			created_date  TIMESTAMPTZ NOT NULL DEFAULT now(),
			import_date   TIMESTAMPTZ,
			supplier_name TEXT NOT NULL DEFAULT '',
			note          TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id         TEXT PRIMARY KEY,
			order_id   TEXT NOT NULL,
			order_type TEXT NOT NULL,
			book_id    TEXT NOT NULL REFERENCES books(id),
			quantity   INTEGER NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (unit_price >= 0),
			note       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS bin_allocations (
			id            TEXT PRIMARY KEY,
			order_item_id TEXT NOT NULL REFERENCES order_items(id),
			bin_id        TEXT NOT NULL REFERENCES bins(id),
			quantity      INTEGER NOT NULL CHECK (quantity > 0)
		)`,
		`CREATE TABLE IF NOT EXISTS status_logs (
			id         TEXT PRIMARY KEY,
			order_id   TEXT NOT NULL,
			order_type TEXT NOT NULL,
			status     TEXT NOT NULL,
			actor_id   TEXT NOT NULL,
			note       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_logs_order ON status_logs(order_id, order_type, created_at)`,
		`CREATE TABLE IF NOT EXISTS fault_books (
			id        TEXT PRIMARY KEY,
			order_id  TEXT NOT NULL REFERENCES import_orders(id),
			book_id   TEXT NOT NULL REFERENCES books(id),
			quantity  INTEGER NOT NULL CHECK (quantity > 0),
			note      TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
