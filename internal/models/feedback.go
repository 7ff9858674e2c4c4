package models

import (
	"context"
	"time"
)

const (
	FeedbackSchemaLike = 1 // {like: bool}
	FeedbackSchemaRate = 2 // {rate: 1..5, feedback?}
)

type Feedback struct {
	ID            string    `json:"id" db:"id"`
	Rate          int       `json:"rate" db:"rate"`
	Feedback      *string   `json:"feedback,omitempty" db:"feedback"`
	SchemaVersion int       `json:"schemaVersion" db:"schema_version"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type FeedbackRepository interface {
	Insert(ctx context.Context, feedback *Feedback) error
	CountByRate(ctx context.Context) (map[int]int64, error)
}

// RatingSummary is the number of stored ratings per rate value.
type RatingSummary struct {
	Counts map[int]int64 `json:"counts"`
	Total  int64         `json:"total"`
}
