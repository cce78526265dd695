package service

import (
	"context"
)

// ScanEvent represents a scan lifecycle event emitted for async consumers
type ScanEvent struct {
	RequestID  string `json:"request_id,omitempty"` // For distributed tracing
	JobID      string `json:"job_id"`
	UserID     int64  `json:"user_id"`
	State      string `json:"state"`
	FoldersNew int    `json:"folders_new"`
	MediaNew   int    `json:"media_new"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishScanEvent publishes a scan lifecycle event for async processing
	PublishScanEvent(ctx context.Context, event *ScanEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
