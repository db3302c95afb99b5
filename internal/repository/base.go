// Package repository provides the data access layer over the platform's
// document collections, its storage bucket and the local orphan ledger.
package repository

import (
	"context"

	"snapgram/internal/appwrite"
	"snapgram/internal/models"
)

// Collections names the database, collections and bucket the repositories use.
type Collections struct {
	DatabaseID string
	Users      string
	Posts      string
	Saves      string
	Bucket     string
}

// DocumentStore is the document API. *appwrite.Databases satisfies it.
type DocumentStore interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error
	GetDocument(ctx context.Context, databaseID, collectionID, documentID string, queries []appwrite.Query, out any) error
	UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error
	DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries []appwrite.Query, out any) error
}

// FileStore is the storage API. *appwrite.Storage satisfies it.
type FileStore interface {
	CreateFile(ctx context.Context, bucketID, fileID string, f appwrite.InputFile, out any) error
	FilePreviewURL(bucketID, fileID string, opts appwrite.PreviewOptions) (string, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error
}

var (
	_ DocumentStore = (*appwrite.Databases)(nil)
	_ FileStore     = (*appwrite.Storage)(nil)
)

// ListOptions controls ordering and paging of list queries.
type ListOptions struct {
	OrderBy string
	Limit   int
	Cursor  string
}

// Queries renders the options as orderDesc, limit and cursorAfter in that order.
// Zero values are omitted.
func (o ListOptions) Queries() []appwrite.Query {
	var q []appwrite.Query
	if o.OrderBy != "" {
		q = append(q, appwrite.OrderDesc(o.OrderBy))
	}
	if o.Limit > 0 {
		q = append(q, appwrite.Limit(o.Limit))
	}
	if o.Cursor != "" {
		q = append(q, appwrite.CursorAfter(o.Cursor))
	}
	return q
}

// wrapRemote converts a platform error into an AppError.
func wrapRemote(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if appwrite.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	if appwrite.IsUnauthorized(err) {
		return models.NewUnauthorizedError(operation + " requires a valid session")
	}
	return models.NewRemoteError(operation, err)
}
