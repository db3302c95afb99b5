package appwrite

import (
	"context"
	"net/http"
)

// DocumentList is the envelope returned by list endpoints.
type DocumentList[T any] struct {
	Total     int `json:"total"`
	Documents []T `json:"documents"`
}

// Databases exposes the document endpoints.
type Databases struct {
	client *Client
}

// NewDatabases returns the documents service for c.
func NewDatabases(c *Client) *Databases {
	return &Databases{client: c}
}

func documentsPath(databaseID, collectionID string) string {
	return "/databases/" + databaseID + "/collections/" + collectionID + "/documents"
}

// CreateDocument stores data under documentID and decodes the created document into out.
func (d *Databases) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error {
	payload := map[string]any{
		"documentId": documentID,
		"data":       data,
	}
	r, err := d.client.jsonRequest("databases", "createDocument", http.MethodPost, documentsPath(databaseID, collectionID), nil, payload)
	if err != nil {
		return err
	}
	return d.client.do(ctx, r, out)
}

// GetDocument fetches one document.
func (d *Databases) GetDocument(ctx context.Context, databaseID, collectionID, documentID string, queries []Query, out any) error {
	path := documentsPath(databaseID, collectionID) + "/" + documentID
	r, err := d.client.jsonRequest("databases", "getDocument", http.MethodGet, path, encodeQueries(queries), nil)
	if err != nil {
		return err
	}
	return d.client.do(ctx, r, out)
}

// UpdateDocument patches the given attributes of a document.
func (d *Databases) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any, out any) error {
	path := documentsPath(databaseID, collectionID) + "/" + documentID
	r, err := d.client.jsonRequest("databases", "updateDocument", http.MethodPatch, path, nil, map[string]any{"data": data})
	if err != nil {
		return err
	}
	return d.client.do(ctx, r, out)
}

// DeleteDocument removes a document.
func (d *Databases) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	path := documentsPath(databaseID, collectionID) + "/" + documentID
	r, err := d.client.jsonRequest("databases", "deleteDocument", http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	return d.client.do(ctx, r, nil)
}

// ListDocuments runs queries against a collection; out is usually a *DocumentList[T].
func (d *Databases) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []Query, out any) error {
	r, err := d.client.jsonRequest("databases", "listDocuments", http.MethodGet, documentsPath(databaseID, collectionID), encodeQueries(queries), nil)
	if err != nil {
		return err
	}
	return d.client.do(ctx, r, out)
}
