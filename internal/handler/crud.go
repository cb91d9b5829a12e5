// Package handler exposes the HTTP surface. Resource endpoints are
// stamped out by a generic CRUD factory over a per-resource store, so a
// tour, user, review or booking endpoint differs only in its schema,
// its relations and its hooks.
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
	"github.com/ShubhamMishra2526/Travease-App/pkg/response"
)

// Store is the capability set a repository offers the generic handlers.
type Store[T any] interface {
	Create(ctx context.Context, doc *T) error
	FindByID(ctx context.Context, id string, expand ...string) (*T, error)
	Find(ctx context.Context, q *query.Query) ([]T, int, error)
	UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*T, error)
	DeleteByID(ctx context.Context, id string) error
}

// Resource wires one store into the generic CRUD handlers.
type Resource[T any] struct {
	// Singular and plural envelope keys, e.g. "tour" / "tours"
	Name   string
	Plural string
	// Schema drives query translation for GetAll
	Schema *query.Schema
	Store  Store[T]
	// Expand lists the relations GetOne loads
	Expand []string
	// Scope restricts listings from route context, e.g. nested tour
	// reviews. Runs after client filters parse.
	Scope func(c *gin.Context, q *query.Query) *query.Query
	// Defaults fills request-derived fields before create, e.g. the
	// review author from the session
	Defaults func(c *gin.Context, doc *T)
	// AfterWrite runs once a create or update has committed
	AfterWrite func(ctx context.Context, doc *T) error
	// AfterDelete runs once a delete has committed, with the document
	// as it was before deletion
	AfterDelete func(ctx context.Context, doc *T) error
}

// CreateOne handles POST /<resource>.
func (r *Resource[T]) CreateOne(c *gin.Context) {
	doc := new(T)
	if err := c.ShouldBindJSON(doc); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid input data. " + err.Error()))
		return
	}

	if r.Defaults != nil {
		r.Defaults(c, doc)
	}

	ctx := c.Request.Context()
	if err := r.Store.Create(ctx, doc); err != nil {
		_ = c.Error(err)
		return
	}

	if r.AfterWrite != nil {
		if err := r.AfterWrite(ctx, doc); err != nil {
			_ = c.Error(err)
			return
		}
	}

	response.Created(c, gin.H{r.Name: doc})
}

// GetOne handles GET /<resource>/:id.
func (r *Resource[T]) GetOne(c *gin.Context) {
	doc, err := r.Store.FindByID(c.Request.Context(), c.Param("id"), r.Expand...)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if doc == nil {
		_ = c.Error(apperror.NotFound("No document found with that ID"))
		return
	}

	response.OK(c, gin.H{r.Name: doc})
}

// GetAll handles GET /<resource> with filter, sort, projection and
// pagination taken from the query string.
func (r *Resource[T]) GetAll(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), r.Schema)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if r.Scope != nil {
		q = r.Scope(c, q)
	}

	docs, total, err := r.Store.Find(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.List(c, gin.H{r.Plural: docs}, total)
}

// UpdateOne handles PATCH /<resource>/:id with a partial body.
func (r *Resource[T]) UpdateOne(c *gin.Context) {
	patch := make(map[string]interface{})
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid input data. " + err.Error()))
		return
	}

	ctx := c.Request.Context()
	doc, err := r.Store.UpdateByID(ctx, c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if doc == nil {
		_ = c.Error(apperror.NotFound("No document found with that ID"))
		return
	}

	if r.AfterWrite != nil {
		if err := r.AfterWrite(ctx, doc); err != nil {
			_ = c.Error(err)
			return
		}
	}

	response.OK(c, gin.H{r.Name: doc})
}

// DeleteOne handles DELETE /<resource>/:id.
func (r *Resource[T]) DeleteOne(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// Hooks need the document as it existed, so load it first
	var doc *T
	if r.AfterDelete != nil {
		var err error
		doc, err = r.Store.FindByID(ctx, id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if doc == nil {
			_ = c.Error(apperror.NotFound("No document found with that ID"))
			return
		}
	}

	if err := r.Store.DeleteByID(ctx, id); err != nil {
		_ = c.Error(err)
		return
	}

	if r.AfterDelete != nil {
		if err := r.AfterDelete(ctx, doc); err != nil {
			_ = c.Error(err)
			return
		}
	}

	response.NoContent(c)
}
