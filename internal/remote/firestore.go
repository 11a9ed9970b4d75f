package remote

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirebaseApp initializes the Firebase app from a service account file.
// An empty credentials path falls back to application default credentials.
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: initialize app: %w", err)
	}
	return app, nil
}

// FirestoreStore is the DocumentStore backed by Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func OpenFirestore(ctx context.Context, app *firebase.App) (*FirestoreStore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: firestore client: %w", err)
	}
	return NewFirestoreStore(client), nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) GetDocument(ctx context.Context, path string) (map[string]any, bool, error) {
	if err := validateDocPath(path); err != nil {
		return nil, false, err
	}
	snap, err := s.client.Doc(path).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapUnavailable("get "+path, err)
	}
	if !snap.Exists() {
		return nil, false, nil
	}
	return snap.Data(), true, nil
}

func (s *FirestoreStore) SetDocument(ctx context.Context, path string, data map[string]any, merge bool) error {
	if err := validateDocPath(path); err != nil {
		return err
	}
	var opts []firestore.SetOption
	if merge {
		opts = append(opts, firestore.MergeAll)
	}
	if _, err := s.client.Doc(path).Set(ctx, toFirestore(data), opts...); err != nil {
		return wrapUnavailable("set "+path, err)
	}
	return nil
}

func (s *FirestoreStore) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := validateCollectionPath(collection); err != nil {
		return "", err
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, toFirestore(data))
	if err != nil {
		return "", wrapUnavailable("add "+collection, err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Increment(ctx context.Context, path string, deltas map[string]float64) error {
	if err := validateDocPath(path); err != nil {
		return err
	}
	data := make(map[string]any, len(deltas))
	for k, d := range deltas {
		data[k] = firestore.Increment(d)
	}
	if _, err := s.client.Doc(path).Set(ctx, data, firestore.MergeAll); err != nil {
		return wrapUnavailable("increment "+path, err)
	}
	return nil
}

func (s *FirestoreStore) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	if err := validateCollectionPath(collection); err != nil {
		return nil, err
	}
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, wrapUnavailable("list "+collection, err)
	}
	out := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return out, nil
}

func toFirestore(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := v.(serverTime); ok {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}

func wrapUnavailable(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
