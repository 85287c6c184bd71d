package auction

import (
	"context"
	"time"
)

// ImageStorage issues presigned URLs for product images kept in object storage
type ImageStorage interface {
	GenerateUploadURL(ctx context.Context, key, contentType string) (string, time.Time, error)
	GenerateViewURL(ctx context.Context, key string) (string, time.Time, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
	DeleteObject(ctx context.Context, key string) error
}

// BidRecorder receives bid placement outcomes that never become domain events
type BidRecorder interface {
	BidRejected(code string)
	BidRetried()
}

type nopBidRecorder struct{}

func (nopBidRecorder) BidRejected(string) {}
func (nopBidRecorder) BidRetried()        {}
