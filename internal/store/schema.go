package store

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	author     TEXT NOT NULL,
	year       INTEGER,
	genre      TEXT,
	author_key TEXT NOT NULL DEFAULT '',
	genre_key  TEXT NOT NULL DEFAULT '',
	available  BOOLEAN NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS borrowers (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	contact       TEXT UNIQUE,
	phone         TEXT,
	registered_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id     INTEGER NOT NULL REFERENCES items(id),
	borrower_id INTEGER NOT NULL REFERENCES borrowers(id),
	opened_at   TIMESTAMP NOT NULL,
	closed_at   TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_open_item ON loans(item_id) WHERE closed_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_loans_borrower ON loans(borrower_id, closed_at);
CREATE INDEX IF NOT EXISTS idx_loans_opened ON loans(opened_at) WHERE closed_at IS NULL;

CREATE TABLE IF NOT EXISTS catalog_sources (
	path      TEXT PRIMARY KEY,
	checksum  TEXT NOT NULL,
	item_id   INTEGER NOT NULL REFERENCES items(id),
	synced_at TIMESTAMP NOT NULL
);
`

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	author     TEXT NOT NULL,
	year       INTEGER,
	genre      TEXT,
	author_key TEXT NOT NULL DEFAULT '',
	genre_key  TEXT NOT NULL DEFAULT '',
	available  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS borrowers (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	contact       TEXT UNIQUE,
	phone         TEXT,
	registered_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
	id          BIGSERIAL PRIMARY KEY,
	item_id     BIGINT NOT NULL REFERENCES items(id),
	borrower_id BIGINT NOT NULL REFERENCES borrowers(id),
	opened_at   TIMESTAMPTZ NOT NULL,
	closed_at   TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_open_item ON loans(item_id) WHERE closed_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_loans_borrower ON loans(borrower_id, closed_at);
CREATE INDEX IF NOT EXISTS idx_loans_opened ON loans(opened_at) WHERE closed_at IS NULL;

CREATE TABLE IF NOT EXISTS catalog_sources (
	path      TEXT PRIMARY KEY,
	checksum  TEXT NOT NULL,
	item_id   BIGINT NOT NULL REFERENCES items(id),
	synced_at TIMESTAMPTZ NOT NULL
);
`
