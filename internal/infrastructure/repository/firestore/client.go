package firestore

import (
	"context"
	"os"
	"strings"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	matchesCollection     = "matches"
	playersCollection     = "players"
	predictionsCollection = "predictions"
)

type ClientConfig struct {
	ProjectID       string
	CredentialsJSON string
}

// NewClient connects to Firestore. When FIRESTORE_EMULATOR_HOST is set the
// client talks to the emulator without credentials.
func NewClient(ctx context.Context, cfg ClientConfig) (*gcfirestore.Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}

	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(os.Getenv("FIRESTORE_EMULATOR_HOST")) != "":
		opts = append(opts, option.WithoutAuthentication())
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := gcfirestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "create firestore client for project %s", projectID)
	}
	return client, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// collect drains an iterator, decoding each document with decode.
func collect[T any](iter *gcfirestore.DocumentIterator, decode func(*gcfirestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()

	out := make([]T, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		item, err := decode(doc)
		if err != nil {
			return nil, errors.Wrapf(err, "decode document %s", doc.Ref.ID)
		}
		out = append(out, item)
	}
}
