package models

import (
	"time"
)

// Motifs enregistrés sur les mouvements de stock.
const (
	MovementSale       = "sale"
	MovementReturn     = "return"
	MovementRestock    = "restock"
	MovementAdjustment = "adjustment"
	MovementRollback   = "rollback"
)

// StockMovement journalise un ajustement de stock réussi.
type StockMovement struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	OrderID   string    `json:"order_id,omitempty"`
	Delta     int       `json:"delta"`
	PrevStock int       `json:"prev_stock"`
	NewStock  int       `json:"new_stock"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
