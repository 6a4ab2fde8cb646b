// Package storage holds the Mongo-backed store objects, one per
// collection. Every mutation the core services rely on is expressed as a
// conditional update scoped to a single document; nothing here wraps
// multiple documents in a transaction.
package storage

import (
	"errors"

	"perishable-scm-api-server/internal/apperr"

	"go.mongodb.org/mongo-driver/mongo"
)

// translate maps driver-level errors into the shared error vocabulary so
// the services never have to import the mongo package to classify
// failures.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Wrap(apperr.NotFound, "document not found", err)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Wrap(apperr.Conflict, "duplicate key", err)
	default:
		return apperr.Wrap(apperr.Unavailable, "storage error", err)
	}
}
