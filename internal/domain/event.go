package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/pubsub"
	"github.com/trixlive/backend/pkg/xcontext"
)

const (
	TopicPostSubmitted = "post.submitted"
	TopicPostDecided   = "post.decided"
)

type PostEvent struct {
	PostID      string            `json:"post_id" mapstructure:"post_id"`
	UserID      int64             `json:"user_id" mapstructure:"user_id"`
	Kind        entity.PostKind   `json:"kind" mapstructure:"kind"`
	Category    string            `json:"category" mapstructure:"category"`
	Subcategory string            `json:"subcategory,omitempty" mapstructure:"subcategory"`
	Status      entity.PostStatus `json:"status" mapstructure:"status"`
	ModeratorID int64             `json:"moderator_id,omitempty" mapstructure:"moderator_id"`
	Link        string            `json:"link,omitempty" mapstructure:"link"`
	Timestamp   time.Time         `json:"timestamp" mapstructure:"timestamp"`
}

func newPostEvent(post *entity.Post, now time.Time) PostEvent {
	return PostEvent{
		PostID:      post.ID,
		UserID:      post.UserID,
		Kind:        post.Kind,
		Category:    post.Category,
		Subcategory: post.Subcategory,
		Status:      post.Status,
		Timestamp:   now,
	}
}

// publishEvent never fails the caller, the event bus is best effort.
func publishEvent(ctx context.Context, publisher pubsub.Publisher, topic string, event PostEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal %s event: %v", topic, err)
		return
	}

	err = publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(event.PostID), Msg: b})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish %s event of post %s: %v", topic, event.PostID, err)
	}
}
