package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionLine is one cleaned POS line item. Lines sharing (OrderId,
// Branch) form one basket. The cleaning pipeline owns this table; the
// backend only reads it.
type TransactionLine struct {
	ID        uint            `gorm:"primary_key" json:"id"`
	OrderId   string          `gorm:"index;size:40;not null" json:"order_id"`
	Branch    string          `gorm:"index;size:100;not null" json:"branch"`
	Item      string          `gorm:"size:200;not null" json:"item"`
	Category  string          `gorm:"size:40" json:"category"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity"`
	NetAmount decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"net_amount"`
	Timestamp time.Time       `gorm:"index" json:"timestamp"`
}

func (TransactionLine) TableName() string {
	return "transaction_lines"
}

// Basket is the set of distinct items in one order. Duplicate items within
// an order collapse to one membership entry; quantity is not used for
// co-occurrence, only presence.
type Basket struct {
	OrderId string
	Branch  string
	Items   []string
}

func (b Basket) Size() int {
	return len(b.Items)
}

func (b Basket) Contains(item string) bool {
	for _, it := range b.Items {
		if it == item {
			return true
		}
	}
	return false
}
