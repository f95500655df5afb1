package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS corpus_namespaces (
        namespace TEXT PRIMARY KEY,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS corpus_chunks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        namespace TEXT NOT NULL,
        content TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_corpus_namespace ON corpus_chunks(namespace);

    CREATE TABLE IF NOT EXISTS inventory (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        product_name TEXT NOT NULL,
        quantity INTEGER DEFAULT 0,
        unit_price REAL DEFAULT 0.0,
        category TEXT DEFAULT '',
        description TEXT DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_product_name ON inventory(product_name);

    CREATE TABLE IF NOT EXISTS sessions (
        id TEXT PRIMARY KEY, -- UUID
        role TEXT NOT NULL,
        surface TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        session_id TEXT NOT NULL,
        sender TEXT NOT NULL CHECK (sender IN ('user', 'model')),
        content TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (session_id) REFERENCES sessions (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Corpus methods

// InitCorpus registers a namespace. Re-running is a no-op and never touches
// chunks already stored under the namespace.
func (s *SQLiteStore) InitCorpus(namespace string) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO corpus_namespaces (namespace) VALUES (?)", namespace)
	if err != nil {
		return fmt.Errorf("failed to register namespace %s: %w", namespace, err)
	}
	return nil
}

// AppendChunks extends the namespace's corpus with chunks in order, all in
// one transaction so a failure leaves the corpus unchanged.
func (s *SQLiteStore) AppendChunks(namespace string, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO corpus_chunks (namespace, content) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.Exec(namespace, chunk); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk append: %w", err)
	}
	return nil
}

// LoadCorpus returns the full corpus for a namespace in insertion order. A
// namespace that was never written returns an empty slice, not an error.
func (s *SQLiteStore) LoadCorpus(namespace string) ([]string, error) {
	rows, err := s.db.Query("SELECT content FROM corpus_chunks WHERE namespace = ? ORDER BY id ASC", namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus: %w", err)
	}
	defer rows.Close()

	var chunks []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, content)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) CountChunks(namespace string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM corpus_chunks WHERE namespace = ?", namespace).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// ClearCorpus drops every chunk in the namespace. Individual chunks are never
// deleted; this whole-namespace reset is the only destructive corpus operation.
func (s *SQLiteStore) ClearCorpus(namespace string) error {
	_, err := s.db.Exec("DELETE FROM corpus_chunks WHERE namespace = ?", namespace)
	if err != nil {
		return fmt.Errorf("failed to clear corpus %s: %w", namespace, err)
	}
	return nil
}

// Inventory methods

func (s *SQLiteStore) ListInventory() ([]InventoryItem, error) {
	rows, err := s.db.Query("SELECT id, product_name, quantity, unit_price, category, description, created_at, updated_at FROM inventory ORDER BY product_name")
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var item InventoryItem
		if err := rows.Scan(&item.ID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Category, &item.Description, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceInventory swaps the whole table for the given items in one
// transaction. This backs the editable-table save and CSV import, which both
// submit the complete desired state.
func (s *SQLiteStore) ReplaceInventory(items []InventoryItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin inventory transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM inventory"); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO inventory (product_name, quantity, unit_price, category, description) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare inventory insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(item.ProductName, item.Quantity, item.UnitPrice, item.Category, item.Description); err != nil {
			return fmt.Errorf("failed to insert inventory item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory replace: %w", err)
	}
	return nil
}

// GetItemByName finds an item by exact product name, case-insensitively.
// Returns nil without error when no item matches.
func (s *SQLiteStore) GetItemByName(name string) (*InventoryItem, error) {
	var item InventoryItem
	err := s.db.QueryRow(
		"SELECT id, product_name, quantity, unit_price, category, description, created_at, updated_at FROM inventory WHERE product_name = ? COLLATE NOCASE",
		name,
	).Scan(&item.ID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Category, &item.Description, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to query inventory item: %w", err)
	}
	return &item, nil
}

// SearchProducts finds items whose name contains the given fragment.
func (s *SQLiteStore) SearchProducts(name string) ([]InventoryItem, error) {
	rows, err := s.db.Query(
		"SELECT id, product_name, quantity, unit_price, category, description, created_at, updated_at FROM inventory WHERE product_name LIKE ? ORDER BY product_name",
		"%"+name+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var item InventoryItem
		if err := rows.Scan(&item.ID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Category, &item.Description, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) InsertItem(item *InventoryItem) error {
	res, err := s.db.Exec(
		"INSERT INTO inventory (product_name, quantity, unit_price, category, description) VALUES (?, ?, ?, ?, ?)",
		item.ProductName, item.Quantity, item.UnitPrice, item.Category, item.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert inventory item: %w", err)
	}
	item.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) UpdateItem(item *InventoryItem) error {
	res, err := s.db.Exec(
		"UPDATE inventory SET product_name = ?, quantity = ?, unit_price = ?, category = ?, description = ?, updated_at = ? WHERE id = ?",
		item.ProductName, item.Quantity, item.UnitPrice, item.Category, item.Description, time.Now(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("inventory item not found, nothing updated")
	}
	return nil
}

func (s *SQLiteStore) DeleteItem(id int64) error {
	res, err := s.db.Exec("DELETE FROM inventory WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("inventory item not found, nothing deleted")
	}
	return nil
}

// Session methods

func (s *SQLiteStore) CreateSession(role, surface string) (*Session, error) {
	sessionID := uuid.NewString()
	now := time.Now()
	_, err := s.db.Exec("INSERT INTO sessions (id, role, surface, created_at) VALUES (?, ?, ?, ?)", sessionID, role, surface, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return &Session{ID: sessionID, Role: role, Surface: surface, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetSessionByID(sessionID string) (*Session, error) {
	var session Session
	err := s.db.QueryRow("SELECT id, role, surface, created_at FROM sessions WHERE id = ?", sessionID).
		Scan(&session.ID, &session.Role, &session.Surface, &session.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteStore) CreateMessage(msg *Message) error {
	msg.ID = uuid.NewString() // Ensure ID is set
	msg.CreatedAt = time.Now()

	_, err := s.db.Exec(
		"INSERT INTO messages (id, session_id, sender, content, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.SessionID, msg.Sender, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessagesBySessionID(sessionID string, limit, offset int) ([]Message, error) {
	rows, err := s.db.Query(
		"SELECT id, session_id, sender, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC LIMIT ? OFFSET ?",
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Sender, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
