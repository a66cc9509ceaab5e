package upsertmembershipcatalog

import (
	"time"

	"clinic-workers/internal/common/database"
	"clinic-workers/internal/common/logger"
)

// Input is a catalog definition; an empty ID creates a new row.
type Input struct {
	ID           string  `json:"id,omitempty"`
	Tier         string  `json:"tier"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Price        float64 `json:"price"`
	Coverage     float64 `json:"coverage"`
	NoExpiration bool    `json:"noExpiration"`
	ValidUntil   string  `json:"validUntil,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

type Output struct {
	CatalogID string `json:"catalogId"`
	Created   bool   `json:"created"`
	Tier      string `json:"tier"`
	Active    bool   `json:"active"`
}

type ServiceDependencies struct {
	DB     *database.PostgresClient
	Logger logger.Logger
	Clock  func() time.Time
}
