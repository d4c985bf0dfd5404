package snapstore

// Schema is the calque database schema. Applied idempotently on open.
const Schema = `
CREATE TABLE IF NOT EXISTS pages (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS viewport_snapshots (
	page_id     TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	layout      TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	PRIMARY KEY (page_id, name)
);

CREATE TABLE IF NOT EXISTS blueprints (
	id          TEXT PRIMARY KEY,
	page_id     TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	payload     TEXT NOT NULL,
	node_count  INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_blueprints_page ON blueprints(page_id, created_at DESC);
`
