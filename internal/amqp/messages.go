package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Stock operations carried by StockChangeMessage.
const (
	OpStockIn         = "stock_in"
	OpStockOut        = "stock_out"
	OpProductAdded    = "product_added"
	OpProductDeleted  = "product_deleted"
	OpCategoryAdded   = "category_added"
	OpCategoryDeleted = "category_deleted"
)

// StockChangeMessage is published after every catalog mutation. Stock and
// Status describe the product after the change.
type StockChangeMessage struct {
	ID          string    `json:"id"`
	Operation   string    `json:"operation"`
	ProductID   string    `json:"productId,omitempty"`
	ProductName string    `json:"productName,omitempty"`
	CategoryID  string    `json:"categoryId,omitempty"`
	Delta       int       `json:"delta"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewStockChangeMessage(op, productID, productName string, delta, stock int, status string) *StockChangeMessage {
	return &StockChangeMessage{
		ID:          uuid.NewString(),
		Operation:   op,
		ProductID:   productID,
		ProductName: productName,
		Delta:       delta,
		Stock:       stock,
		Status:      status,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *StockChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func StockChangeMessageFromJSON(data []byte) (*StockChangeMessage, error) {
	var msg StockChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Operation == "" {
		return nil, errors.New("stock change message without operation")
	}
	return &msg, nil
}
