package remote

import (
	"context"
	"errors"
)

var (
	ErrUnavailable = errors.New("remote: store unavailable")
	ErrInvalidPath = errors.New("remote: invalid document path")
)

// ServerTime is replaced with the server's commit time when written.
var ServerTime = serverTime{}

type serverTime struct{}

// Document is a stored document and its id within its collection.
type Document struct {
	ID   string
	Data map[string]any
}

// DocumentStore is the per-user remote document database. Paths alternate
// collection and document segments, as in "users/{uid}/meta/alarms".
type DocumentStore interface {
	// GetDocument reports ok=false when the document does not exist.
	GetDocument(ctx context.Context, path string) (map[string]any, bool, error)
	SetDocument(ctx context.Context, path string, data map[string]any, merge bool) error
	AddDocument(ctx context.Context, collection string, data map[string]any) (string, error)
	Increment(ctx context.Context, path string, deltas map[string]float64) error
	ListDocuments(ctx context.Context, collection string) ([]Document, error)
}

func AlarmsDocPath(uid string) string {
	return "users/" + uid + "/meta/alarms"
}

func StatsDocPath(uid string) string {
	return "users/" + uid + "/stats/env"
}

func CompletedMissionsPath(uid string) string {
	return "users/" + uid + "/completedMissions"
}

func CookiesDocPath(uid string) string {
	return "users/" + uid + "/meta/cookies"
}
