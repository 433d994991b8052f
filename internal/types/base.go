package types

import "time"

// BaseModel holds the timestamp columns shared by all persisted entities.
type BaseModel struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName represents a database table name.
type TableName string

const (
	TableNamePlans         TableName = "plans"
	TableNameSubscriptions TableName = "subscriptions"
	TableNamePayments      TableName = "payments"
)
