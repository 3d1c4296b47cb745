package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/order-tracker/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Pragmas apply per connection, and in-memory databases exist per
	// connection, so pin the pool to a single one.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertOrders inserts or replaces a batch of order records. Records
// keyed on the originating message id overwrite their previous copy,
// so re-syncing a mailbox never duplicates.
func (s *SQLiteStore) UpsertOrders(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO orders (
			id, source_type, source_id,
			order_id, seller_name, status,
			delivery_date, source_subject, source_date, synced_at
		) VALUES (
			?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		var deliveryDate interface{}
		if o.DeliveryDate != nil {
			deliveryDate = o.DeliveryDate.UTC()
		}

		_, err = stmt.ExecContext(ctx,
			o.ID, string(o.SourceType), o.SourceID,
			o.OrderID, o.SellerName, o.Status,
			deliveryDate, o.SourceSubject, o.SourceDate.UTC(), o.SyncedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting order %s: %w", o.ID, err)
		}
	}

	return tx.Commit()
}

// GetOrders retrieves orders matching the provided filter options.
func (s *SQLiteStore) GetOrders(
	ctx context.Context,
	opts OrderFilter,
) ([]model.Order, error) {
	query, args := buildOrderQuery("SELECT *", opts)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// GetOrderByID retrieves a single order by its ID.
func (s *SQLiteStore) GetOrderByID(
	ctx context.Context,
	id string,
) (*model.Order, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM orders WHERE id = ?", id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}

	return &order, nil
}

// CountOrders returns the number of orders matching the filter,
// ignoring pagination.
func (s *SQLiteStore) CountOrders(
	ctx context.Context,
	opts OrderFilter,
) (int, error) {
	opts.Limit = 0
	opts.Offset = 0
	query, args := buildOrderQuery("SELECT COUNT(*)", opts)

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}

	return count, nil
}

// DeleteOrdersBySource removes all orders that came from the given
// source instance. Used when a source is deleted from settings.
func (s *SQLiteStore) DeleteOrdersBySource(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting orders for source %s: %w", sourceID, err)
	}
	return nil
}

// UpsertSource inserts or replaces a source configuration.
// If the source has no ID, a new UUID is generated.
func (s *SQLiteStore) UpsertSource(
	ctx context.Context,
	src model.SourceConfig,
) error {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}

	configJSON, err := json.Marshal(src.Config)
	if err != nil {
		return fmt.Errorf("marshaling source config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sources (
			id, type, name, enabled, config, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		src.ID, src.Type, src.Name,
		boolToInt(src.Enabled), string(configJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting source %s: %w", src.ID, err)
	}

	return nil
}

// GetSources retrieves all configured source entries.
func (s *SQLiteStore) GetSources(
	ctx context.Context,
) ([]model.SourceConfig, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM sources ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []model.SourceConfig
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	return sources, rows.Err()
}

// DeleteSource removes a source by ID.
func (s *SQLiteStore) DeleteSource(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting source %s: %w", id, err)
	}
	return nil
}

// buildOrderQuery constructs the SQL query and args for an OrderFilter.
func buildOrderQuery(selectClause string, opts OrderFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if opts.SourceType != nil {
		conditions = append(conditions, "source_type = ?")
		args = append(args, *opts.SourceType)
	}
	if opts.Seller != nil {
		conditions = append(conditions, "seller_name = ?")
		args = append(args, *opts.Seller)
	}
	if opts.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *opts.Status)
	}
	if opts.Query != nil && *opts.Query != "" {
		conditions = append(conditions,
			"(order_id LIKE ? OR seller_name LIKE ? OR source_subject LIKE ?)")
		q := "%" + *opts.Query + "%"
		args = append(args, q, q, q)
	}

	query := selectClause + " FROM orders"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Determine sort column.
	sortBy := "source_date"
	if opts.SortBy != "" {
		allowedSorts := map[string]bool{
			"order_id":      true,
			"seller_name":   true,
			"status":        true,
			"delivery_date": true,
			"source_date":   true,
			"synced_at":     true,
		}
		if allowedSorts[opts.SortBy] {
			sortBy = opts.SortBy
		}
	}

	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	return query, args
}

// scanOrder scans an order row from sqlx.Rows or a sqlx.Row.
func scanOrder(row interface{ Scan(dest ...interface{}) error }) (model.Order, error) {
	var (
		order        model.Order
		sourceType   string
		deliveryDate *time.Time
		sourceDate   time.Time
		syncedAt     time.Time
	)

	err := row.Scan(
		&order.ID, &sourceType, &order.SourceID,
		&order.OrderID, &order.SellerName, &order.Status,
		&deliveryDate, &order.SourceSubject, &sourceDate, &syncedAt,
	)
	if err != nil {
		return model.Order{}, fmt.Errorf("scanning order row: %w", err)
	}

	order.SourceType = model.SourceType(sourceType)
	order.DeliveryDate = deliveryDate
	order.SourceDate = sourceDate
	order.SyncedAt = syncedAt

	return order, nil
}

// scanSource scans a source row from a sqlx.Rows result set.
func scanSource(rows *sqlx.Rows) (model.SourceConfig, error) {
	var (
		src        model.SourceConfig
		enabled    int
		configJSON string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := rows.Scan(
		&src.ID, &src.Type, &src.Name,
		&enabled, &configJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.SourceConfig{}, fmt.Errorf("scanning source row: %w", err)
	}

	src.Enabled = enabled != 0

	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &src.Config); err != nil {
			return model.SourceConfig{}, fmt.Errorf("unmarshaling source config: %w", err)
		}
	}

	return src, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
