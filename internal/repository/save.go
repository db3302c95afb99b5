package repository

import (
	"context"

	"snapgram/internal/appwrite"
	"snapgram/internal/cache"
	"snapgram/internal/models"
	"snapgram/internal/observability"
)

// SaveRepository records and removes saved-post relations.
type SaveRepository interface {
	Create(ctx context.Context, userID, postID string) (*models.Save, error)
	Delete(ctx context.Context, saveID string) error
}

type saveRepository struct {
	docs DocumentStore
	cols Collections
	log  *observability.RepoLogger
}

func NewSaveRepository(docs DocumentStore, cols Collections) SaveRepository {
	return &saveRepository{docs: docs, cols: cols, log: observability.NewRepoLogger("saves")}
}

func (r *saveRepository) Create(ctx context.Context, userID, postID string) (*models.Save, error) {
	var save models.Save
	id := appwrite.UniqueID()
	data := map[string]any{"user": userID, "post": postID}
	if err := r.docs.CreateDocument(ctx, r.cols.DatabaseID, r.cols.Saves, id, data, &save); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, wrapRemote("save post", "Save", id, err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"save_id": save.ID, "user_id": userID, "post_id": postID})
	cache.InvalidateUser(ctx, userID)
	cache.Invalidate(ctx, cache.PostKey(postID))
	return &save, nil
}

// Delete removes a saved-post relation. The relation is read first so the
// cached user and post it touched can be invalidated.
func (r *saveRepository) Delete(ctx context.Context, saveID string) error {
	var save models.Save
	if err := r.docs.GetDocument(ctx, r.cols.DatabaseID, r.cols.Saves, saveID, nil, &save); err != nil {
		r.log.LogError(ctx, err, "delete")
		return wrapRemote("delete saved post", "Save", saveID, err)
	}
	if err := r.docs.DeleteDocument(ctx, r.cols.DatabaseID, r.cols.Saves, saveID); err != nil {
		r.log.LogError(ctx, err, "delete")
		return wrapRemote("delete saved post", "Save", saveID, err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"save_id": saveID, "user_id": save.User.ID, "post_id": save.Post.ID})

	var keys []string
	if save.User.ID != "" {
		keys = append(keys, cache.UserKey(save.User.ID))
	}
	if save.Post.ID != "" {
		keys = append(keys, cache.PostKey(save.Post.ID))
	}
	cache.Invalidate(ctx, keys...)
	return nil
}
