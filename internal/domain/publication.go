package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/common"
	"github.com/trixlive/backend/internal/domain/draft"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/internal/repository"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/pubsub"
	"github.com/trixlive/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type PublicationDomain interface {
	Start(ctx context.Context, userID int64, topicKey string) (draft.Prompt, error)
	Submit(ctx context.Context, userID int64, in draft.Input) (draft.Prompt, error)
	FinishMedia(ctx context.Context, userID int64) (draft.Prompt, error)
	Back(ctx context.Context, userID int64) (draft.Prompt, bool, error)
	Edit(ctx context.Context, userID int64) (draft.Prompt, error)
	SetAnonymous(ctx context.Context, userID int64, anonymous bool) error
	Preview(ctx context.Context, userID int64) (draft.Draft, error)
	Confirm(ctx context.Context, userID int64) (*entity.Post, error)
	Cancel(ctx context.Context, userID int64) bool
	HasDraft(userID int64) bool
	DraftKind(userID int64) (entity.PostKind, bool)
}

type publicationDomain struct {
	drafts    *draft.Store
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	gate      *CooldownGate
	filter    *ContentFilter
	notifier  client.Notifier
	publisher pubsub.Publisher
}

func NewPublicationDomain(
	drafts *draft.Store,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	gate *CooldownGate,
	filter *ContentFilter,
	notifier client.Notifier,
	publisher pubsub.Publisher,
) *publicationDomain {
	return &publicationDomain{
		drafts:    drafts,
		postRepo:  postRepo,
		userRepo:  userRepo,
		gate:      gate,
		filter:    filter,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Start opens a new draft for the topic, replacing any unfinished one.
func (d *publicationDomain) Start(ctx context.Context, userID int64, topicKey string) (draft.Prompt, error) {
	topic, ok := TopicByKey(topicKey)
	if !ok {
		return draft.Prompt{}, errorx.New(errorx.NotFound, "Unknown category")
	}

	if allowed, remaining := d.gate.CanSubmit(ctx, userID); !allowed {
		return draft.Prompt{}, SubmitError(remaining)
	}

	limits := xcontext.Configs(ctx).Draft
	var session *draft.Session
	if topic.Kind == entity.KindPiar {
		session = draft.NewPiarSession(limits, topic.Draft())
	} else {
		session = draft.NewPostSession(limits, topic.Draft())
	}

	d.drafts.Put(userID, session)
	return session.Prompt(), nil
}

func (d *publicationDomain) session(userID int64) (*draft.Session, error) {
	session, ok := d.drafts.Get(userID)
	if !ok {
		return nil, errorx.New(errorx.NotFound, "You have no draft, choose a category first")
	}

	return session, nil
}

func (d *publicationDomain) HasDraft(userID int64) bool {
	_, ok := d.drafts.Get(userID)
	return ok
}

func (d *publicationDomain) DraftKind(userID int64) (entity.PostKind, bool) {
	session, ok := d.drafts.Get(userID)
	if !ok {
		return "", false
	}

	return session.Kind(), true
}

func (d *publicationDomain) Submit(ctx context.Context, userID int64, in draft.Input) (draft.Prompt, error) {
	session, err := d.session(userID)
	if err != nil {
		return draft.Prompt{}, err
	}

	return session.Submit(in)
}

func (d *publicationDomain) FinishMedia(ctx context.Context, userID int64) (draft.Prompt, error) {
	session, err := d.session(userID)
	if err != nil {
		return draft.Prompt{}, err
	}

	return session.FinishMedia()
}

// Back drops the draft entirely when the user steps back from the first
// step.
func (d *publicationDomain) Back(ctx context.Context, userID int64) (draft.Prompt, bool, error) {
	session, err := d.session(userID)
	if err != nil {
		return draft.Prompt{}, false, err
	}

	prompt, reset := session.Back()
	return prompt, reset, nil
}

func (d *publicationDomain) Edit(ctx context.Context, userID int64) (draft.Prompt, error) {
	session, err := d.session(userID)
	if err != nil {
		return draft.Prompt{}, err
	}

	return session.Edit()
}

func (d *publicationDomain) SetAnonymous(ctx context.Context, userID int64, anonymous bool) error {
	session, err := d.session(userID)
	if err != nil {
		return err
	}

	session.SetAnonymous(anonymous)
	return nil
}

func (d *publicationDomain) Preview(ctx context.Context, userID int64) (draft.Draft, error) {
	session, err := d.session(userID)
	if err != nil {
		return draft.Draft{}, err
	}

	return session.Preview()
}

// Confirm commits the previewed draft as a pending post. A rejected commit
// keeps the draft so the user can retry.
func (d *publicationDomain) Confirm(ctx context.Context, userID int64) (*entity.Post, error) {
	session, err := d.session(userID)
	if err != nil {
		return nil, err
	}

	preview, err := session.Preview()
	if err != nil {
		return nil, err
	}

	cfg := xcontext.Configs(ctx)
	if !cfg.Roles.IsModerator(userID) {
		texts := []string{preview.Text, preview.Piar.Name, preview.Piar.Profession, preview.Piar.Price}
		if banned, found := d.filter.Match(texts...); found {
			xcontext.Logger(ctx).Infof("User %d tried to publish a banned substring %q", userID, banned)
			if err := d.userRepo.IncreaseLinkViolations(ctx, userID); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot increase link violations: %v", err)
			}

			return nil, errorx.New(errorx.LinkViolation, "Links are not allowed in publications")
		}
	}

	if allowed, remaining := d.gate.CanSubmit(ctx, userID); !allowed {
		return nil, SubmitError(remaining)
	}

	post := DraftPost(preview)
	post.ID = uuid.NewString()
	post.UserID = userID
	post.Status = entity.PostPending

	if err := d.postRepo.Create(ctx, post); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create post: %v", err)
		return nil, errorx.Unknown
	}

	d.drafts.Delete(userID)
	d.gate.RecordSubmission(ctx, userID)
	common.IncCounter(common.PostSubmittedTotal, string(post.Kind))

	d.announce(ctx, post)
	publishEvent(ctx, d.publisher, TopicPostSubmitted, newPostEvent(post, time.Now()))

	return post, nil
}

func (d *publicationDomain) Cancel(ctx context.Context, userID int64) bool {
	_, ok := d.drafts.Get(userID)
	d.drafts.Delete(userID)
	return ok
}

// announce shows the post to moderators. A failure leaves the post pending,
// it stays reachable through the pending list.
func (d *publicationDomain) announce(ctx context.Context, post *entity.Post) {
	cfg := xcontext.Configs(ctx)

	author, err := d.userRepo.GetByID(ctx, post.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get author of post %s: %v", post.ID, err)
		}

		author = &entity.User{ID: post.UserID}
	}

	if len(post.Media) > 0 {
		_, err := d.notifier.SendMedia(ctx, cfg.Telegram.ModerationChatID, post.Media, "")
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot send media of post %s to moderators: %v", post.ID, err)
		}
	}

	ref, err := d.notifier.SendText(ctx, cfg.Telegram.ModerationChatID,
		RenderModeration(post, author, cfg.Moderation.Signature), ModerationKeyboard(post))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot announce post %s to moderators: %v", post.ID, err)
		return
	}

	post.ModerationMessageID = ref.MessageID
	if err := d.postRepo.UpdateModerationMessageID(ctx, post.ID, ref.MessageID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save moderation message of post %s: %v", post.ID, err)
	}
}
