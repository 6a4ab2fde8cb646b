package handlers

import (
	"net/http"
	"strconv"

	"perishable-scm-api-server/internal/apperr"
	"perishable-scm-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error vocabulary onto HTTP statuses. This
// is the only place the mapping lives.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.InvalidArgument, apperr.InvalidState:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.InsufficientStock, apperr.Conflict:
		status = http.StatusConflict
	case apperr.Unavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": apperr.MessageOf(err), "kind": kind.String()})
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

func pageFromQuery(c *gin.Context) models.Page {
	skip, _ := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)), 10, 64)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return models.Page{Skip: skip, Limit: limit}
}
