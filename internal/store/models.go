package store

import "time"

type InventoryItem struct {
	ID          int64     `json:"id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Session struct {
	ID        string    `json:"id"` // Using UUID for external ID
	Role      string    `json:"role"`
	Surface   string    `json:"surface"` // which assistant the session belongs to
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        string    `json:"id"` // Using UUID for external ID
	SessionID string    `json:"session_id"`
	Sender    string    `json:"sender"` // "user" or "model"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
