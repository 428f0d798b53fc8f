package metrics

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, reading *Reading) error
	Close() error
}

// Repository defines the interface for reading history storage
type Repository interface {
	Record(reading *Reading) error
	Close() error
}

// Reading is one battery level observed during a poll cycle
type Reading struct {
	Timestamp time.Time
	Battery   string
	Level     float64
	Threshold float64
	Warned    bool
}
