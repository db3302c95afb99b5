package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"snapgram/internal/cache"
	"snapgram/internal/notifications"
	"snapgram/internal/observability"
)

// Publisher receives feed events. *notifications.Hub satisfies it.
type Publisher interface {
	Publish(ev notifications.FeedEvent) error
}

var _ Publisher = (*notifications.Hub)(nil)

var feedTypes = map[string]string{
	"create": notifications.EventPostCreated,
	"update": notifications.EventPostUpdated,
	"delete": notifications.EventPostDeleted,
}

// PostsHandler invalidates cached posts touched by an event and forwards a
// feed event to pub.
func PostsHandler(pub Publisher) HandlerFunc {
	return func(ctx context.Context, ev Event) {
		kind := eventKind(ev.Events)
		if kind == "" {
			observability.RealtimeEvents.WithLabelValues("other").Inc()
			return
		}
		observability.RealtimeEvents.WithLabelValues(kind).Inc()

		var doc struct {
			ID string `json:"$id"`
		}
		if err := json.Unmarshal(ev.Payload, &doc); err != nil || doc.ID == "" {
			observability.GlobalLogger.WarnContext(ctx, "realtime event without document id", slog.String("kind", kind))
			return
		}

		cache.InvalidatePost(ctx, doc.ID)

		if pub == nil {
			return
		}
		if err := pub.Publish(notifications.FeedEvent{Type: feedTypes[kind], PostID: doc.ID}); err != nil {
			observability.GlobalLogger.ErrorContext(ctx, "failed to publish feed event", slog.String("error", err.Error()))
		}
	}
}

// eventKind returns create, update or delete from event names like
// "databases.db.collections.posts.documents.p1.update".
func eventKind(events []string) string {
	for _, e := range events {
		i := strings.LastIndexByte(e, '.')
		if i < 0 {
			continue
		}
		if suffix := e[i+1:]; feedTypes[suffix] != "" {
			return suffix
		}
	}
	return ""
}
