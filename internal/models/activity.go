package models

import "time"

// ActivityAction names an admin mutation against a product.
type ActivityAction string

const (
	ActionCreated ActivityAction = "product.created"
	ActionUpdated ActivityAction = "product.updated"
	ActionDeleted ActivityAction = "product.deleted"
)

// ActivityEntry records one successful admin mutation.
type ActivityEntry struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Action      ActivityAction `json:"action" gorm:"type:varchar(32);index"`
	ProductID   string         `json:"product_id" gorm:"type:varchar(64);index"`
	ProductName string         `json:"product_name" gorm:"type:varchar(100)"`
	Operator    string         `json:"operator" gorm:"type:varchar(100)"`
	At          time.Time      `json:"at" gorm:"index"`
}
