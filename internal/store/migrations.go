package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sources (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	name       TEXT NOT NULL,
	enabled    INTEGER NOT NULL DEFAULT 1,
	config     TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY,
	source_type    TEXT NOT NULL,
	source_id      TEXT NOT NULL,
	order_id       TEXT NOT NULL,
	seller_name    TEXT NOT NULL DEFAULT 'Unknown',
	status         TEXT NOT NULL DEFAULT 'Confirmed',
	delivery_date  DATETIME,
	source_subject TEXT NOT NULL DEFAULT '',
	source_date    DATETIME NOT NULL,
	synced_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_source_id ON orders(source_id);
CREATE INDEX IF NOT EXISTS idx_orders_source_type ON orders(source_type);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_name);
CREATE INDEX IF NOT EXISTS idx_orders_source_date ON orders(source_date);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_orders_source_type_date
	ON orders(source_type, source_date);

CREATE INDEX IF NOT EXISTS idx_orders_delivery_date
	ON orders(delivery_date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
