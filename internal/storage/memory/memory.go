// Package memory holds in-memory implementations of the storage objects,
// reproducing the duplicate-key and conditional-update semantics the
// services rely on. Used by the package tests; nothing in the server
// binary imports it.
package memory

import (
	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/models"
)

// batchKey mirrors the unique (productID, hubID, batchNo) index.
func batchKey(productID, hubID, batchNo string) string {
	return productID + "\x00" + hubID + "\x00" + batchNo
}

func notFound(what string) error {
	return apperr.Newf(apperr.NotFound, "%s not found", what)
}

func duplicate(what string) error {
	return apperr.Newf(apperr.Conflict, "duplicate %s", what)
}

func paginate[T any](items []T, page models.Page) []T {
	if page.Skip > 0 {
		if page.Skip >= int64(len(items)) {
			return nil
		}
		items = items[page.Skip:]
	}
	if page.Limit > 0 && page.Limit < int64(len(items)) {
		items = items[:page.Limit]
	}
	return items
}
