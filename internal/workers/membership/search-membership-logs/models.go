package searchmembershiplogs

import (
	"github.com/elastic/go-elasticsearch/v8"

	"clinic-workers/internal/common/logger"
)

type Input struct {
	CustomerID string     `json:"customerId,omitempty"`
	Action     string     `json:"action,omitempty"`
	Tier       string     `json:"tier,omitempty"`
	From       string     `json:"from,omitempty"`
	To         string     `json:"to,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Data      []map[string]interface{} `json:"data"`
	TotalHits int64                    `json:"totalHits"`
	Took      int64                    `json:"took"` // milliseconds
}

type ServiceDependencies struct {
	Client *elasticsearch.Client
	Logger logger.Logger
}
