package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/Hoshiningen/MonoidTalk/pkg/bakery"
)

// sqliteSchemaVersion is stored in PRAGMA user_version of exported files.
const sqliteSchemaVersion = 1

// ErrSchemaVersion is returned when an export was written by an
// incompatible version.
var ErrSchemaVersion = errors.New("unsupported sqlite schema version")

const sqliteSchema = `
	CREATE TABLE meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE foods (
		id          INTEGER PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL,
		price       TEXT NOT NULL,
		price_cents INTEGER NOT NULL
	);
	CREATE TABLE transactions (
		position     INTEGER PRIMARY KEY,
		order_number INTEGER NOT NULL UNIQUE,
		gratuity     REAL NOT NULL
	);
	CREATE TABLE purchases (
		order_number INTEGER NOT NULL REFERENCES transactions(order_number),
		food_id      INTEGER NOT NULL REFERENCES foods(id),
		PRIMARY KEY (order_number, food_id)
	);
`

// ExportSQLite writes ds and the catalog c to a new SQLite database at path,
// replacing any file already there. The transactions and purchases tables
// mirror the CSV files; foods holds the menu so tickets can be priced in SQL.
func ExportSQLite(ctx context.Context, path string, ds *Dataset, c *bakery.Catalog) (err error) {
	rmErr := os.Remove(path)
	if rmErr != nil && !os.IsNotExist(rmErr) {
		return fmt.Errorf("removing old export: %w", rmErr)
	}

	db, err := openSQLite(ctx, path)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, db.Close())
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export txn: %w", err)
	}

	committed := false

	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, sqliteSchema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	manifest, err := json.Marshal(ds.Manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('manifest', ?)`, string(manifest))
	if err != nil {
		return fmt.Errorf("insert manifest: %w", err)
	}

	err = insertFoods(ctx, tx, c)
	if err != nil {
		return err
	}

	err = insertTransactions(ctx, tx, ds.Transactions.All())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion))
	if err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit export: %w", err)
	}

	committed = true

	return nil
}

func insertFoods(ctx context.Context, tx *sql.Tx, c *bakery.Catalog) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO foods (id, name, type, price, price_cents) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare food insert: %w", err)
	}

	defer func() { _ = stmt.Close() }()

	for _, item := range c.Items() {
		_, err = stmt.ExecContext(ctx,
			item.ID,
			item.Name,
			item.Type.String(),
			item.Price.StringFixed(2),
			item.Price.Shift(2).Round(0).IntPart(),
		)
		if err != nil {
			return fmt.Errorf("insert food %d: %w", item.ID, err)
		}
	}

	return nil
}

func insertTransactions(ctx context.Context, tx *sql.Tx, v bakery.View) error {
	insertTxn, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (position, order_number, gratuity) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare transaction insert: %w", err)
	}

	defer func() { _ = insertTxn.Close() }()

	insertPurchase, err := tx.PrepareContext(ctx, `
		INSERT INTO purchases (order_number, food_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare purchase insert: %w", err)
	}

	defer func() { _ = insertPurchase.Close() }()

	for i, t := range v.Transactions() {
		_, err = insertTxn.ExecContext(ctx, i, t.OrderNumber, t.Gratuity)
		if err != nil {
			return fmt.Errorf("insert order %d: %w", t.OrderNumber, err)
		}

		for id := range t.Purchases.All() {
			_, err = insertPurchase.ExecContext(ctx, t.OrderNumber, id)
			if err != nil {
				return fmt.Errorf("insert purchase %d for order %d: %w", id, t.OrderNumber, err)
			}
		}
	}

	return nil
}

// ImportSQLite reads a database written by [ExportSQLite] and validates every
// transaction against c, exactly as [Load] does for the CSV layout.
func ImportSQLite(ctx context.Context, path string, c *bakery.Catalog) (ds *Dataset, err error) {
	_, statErr := os.Stat(path)
	if statErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}

	defer func() {
		err = errors.Join(err, db.Close())
	}()

	var version int

	err = db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("read user_version: %w", err)
	}

	if version != sqliteSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchemaVersion, version)
	}

	var raw string

	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'manifest'`).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %w", ErrCorrupt, err)
	}

	var m Manifest

	err = json.Unmarshal([]byte(raw), &m)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrCorrupt, err)
	}

	txns, err := selectTransactions(ctx, db)
	if err != nil {
		return nil, err
	}

	if len(txns) != m.Count {
		return nil, fmt.Errorf("%w: manifest lists %d transactions, found %d", ErrCorrupt, m.Count, len(txns))
	}

	for _, t := range txns {
		err = t.ValidateAgainst(c)
		if err != nil {
			return nil, err
		}
	}

	return &Dataset{Manifest: m, Transactions: bakery.NewSequence(txns)}, nil
}

func selectTransactions(ctx context.Context, db *sql.DB) ([]bakery.Transaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.order_number, t.gratuity, p.food_id
		FROM transactions t
		LEFT JOIN purchases p ON p.order_number = t.order_number
		ORDER BY t.position, p.food_id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var txns []bakery.Transaction

	for rows.Next() {
		var (
			order    int
			gratuity float64
			foodID   sql.NullInt64
		)

		err = rows.Scan(&order, &gratuity, &foodID)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		if len(txns) == 0 || txns[len(txns)-1].OrderNumber != order {
			txns = append(txns, bakery.Transaction{OrderNumber: order, Gratuity: gratuity})
		}

		if !foodID.Valid {
			continue
		}

		id := int(foodID.Int64)
		if id < 0 || id > bakery.MaxFoodID {
			return nil, &bakery.TransactionError{OrderNumber: order, Err: fmt.Errorf("%w: %d", bakery.ErrUnknownFood, id)}
		}

		last := &txns[len(txns)-1]
		last.Purchases = last.Purchases.With(id)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		PRAGMA busy_timeout = 10000;
		PRAGMA journal_mode = DELETE;
		PRAGMA foreign_keys = ON;
	`)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	return db, nil
}
