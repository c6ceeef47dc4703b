package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/common"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/internal/repository"
	"github.com/trixlive/backend/pkg/enum"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/pubsub"
	"github.com/trixlive/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type DecisionAction string

var (
	DecisionApprove = enum.New(DecisionAction("approve"), "approve")
	DecisionReject  = enum.New(DecisionAction("reject"), "reject")
	DecisionEdit    = enum.New(DecisionAction("edit"), "edit")
)

// XPAwarder credits experience points to a user.
type XPAwarder interface {
	AwardXP(ctx context.Context, userID int64, amount uint64) (uint64, error)
}

type ModerationDomain interface {
	BeginDecision(ctx context.Context, moderatorID int64, postID string, action DecisionAction) (string, error)
	CancelDecision(ctx context.Context, moderatorID int64) bool
	HandleFollowUp(ctx context.Context, moderatorID int64, text string) (bool, *entity.Post, error)
	Approve(ctx context.Context, moderatorID int64, postID, link string) (*entity.Post, error)
	Reject(ctx context.Context, moderatorID int64, postID, reason string) (*entity.Post, error)
	Edit(ctx context.Context, moderatorID int64, postID, text string) (*entity.Post, error)
	ListPending(ctx context.Context, moderatorID int64, limit int) ([]entity.Post, error)
}

type pendingDecision struct {
	postID string
	action DecisionAction
}

type moderationDomain struct {
	postRepo  repository.PostRepository
	logRepo   repository.ModerationLogRepository
	notifier  client.Notifier
	publisher pubsub.Publisher
	xp        XPAwarder

	// Decisions waiting for the moderator's next text message, keyed by
	// moderator id. One outstanding decision per moderator.
	mu      sync.Mutex
	pending map[int64]pendingDecision

	// Posts currently being published, keyed by post id.
	inflight *xsync.MapOf[string, int64]
}

func NewModerationDomain(
	postRepo repository.PostRepository,
	logRepo repository.ModerationLogRepository,
	notifier client.Notifier,
	publisher pubsub.Publisher,
	xp XPAwarder,
) *moderationDomain {
	return &moderationDomain{
		postRepo:  postRepo,
		logRepo:   logRepo,
		notifier:  notifier,
		publisher: publisher,
		xp:        xp,
		pending:   map[int64]pendingDecision{},
		inflight:  xsync.NewMapOf[int64](),
	}
}

// BeginDecision remembers that the moderator's next text message completes
// the action on the post. Starting a decision on another post while one is
// outstanding is refused.
func (d *moderationDomain) BeginDecision(
	ctx context.Context, moderatorID int64, postID string, action DecisionAction,
) (string, error) {
	if !xcontext.Configs(ctx).Roles.IsModerator(moderatorID) {
		return "", errorx.New(errorx.PermissionDenied, "Access denied")
	}

	post, err := d.getPendingPost(ctx, postID)
	if err != nil {
		return "", err
	}

	d.dropClosedDecision(ctx, moderatorID, post.ID)

	d.mu.Lock()
	defer d.mu.Unlock()

	if current, ok := d.pending[moderatorID]; ok && current.postID != post.ID {
		return "", errorx.New(errorx.Unavailable,
			"Finish or cancel the decision on post %s first", current.postID)
	}

	d.pending[moderatorID] = pendingDecision{postID: post.ID, action: action}

	switch action {
	case DecisionApprove:
		return fmt.Sprintf("Send the link to the publication of post %s", post.ID), nil
	case DecisionReject:
		return fmt.Sprintf("Send the reason for rejecting post %s", post.ID), nil
	case DecisionEdit:
		return fmt.Sprintf("Send the new text of post %s", post.ID), nil
	default:
		delete(d.pending, moderatorID)
		return "", errorx.New(errorx.BadRequest, "Unknown action %s", action)
	}
}

// dropClosedDecision forgets the outstanding decision of the moderator when
// its post was decided by someone else or no longer exists.
func (d *moderationDomain) dropClosedDecision(ctx context.Context, moderatorID int64, postID string) {
	d.mu.Lock()
	current, ok := d.pending[moderatorID]
	d.mu.Unlock()
	if !ok || current.postID == postID {
		return
	}

	_, err := d.getPendingPost(ctx, current.postID)
	if !errorx.Is(err, errorx.AlreadyProcessed) && !errorx.Is(err, errorx.NotFound) {
		return
	}

	d.mu.Lock()
	if d.pending[moderatorID] == current {
		delete(d.pending, moderatorID)
	}
	d.mu.Unlock()
}

func (d *moderationDomain) CancelDecision(ctx context.Context, moderatorID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.pending[moderatorID]
	delete(d.pending, moderatorID)
	return ok
}

// HandleFollowUp completes the outstanding decision of the moderator with
// text. It returns false when nothing was waiting. The decision stays
// outstanding after a validation or publication error so the moderator can
// send the message again.
func (d *moderationDomain) HandleFollowUp(
	ctx context.Context, moderatorID int64, text string,
) (bool, *entity.Post, error) {
	d.mu.Lock()
	decision, ok := d.pending[moderatorID]
	d.mu.Unlock()
	if !ok {
		return false, nil, nil
	}

	var post *entity.Post
	var err error
	switch decision.action {
	case DecisionApprove:
		post, err = d.Approve(ctx, moderatorID, decision.postID, text)
	case DecisionReject:
		post, err = d.Reject(ctx, moderatorID, decision.postID, text)
	case DecisionEdit:
		post, err = d.Edit(ctx, moderatorID, decision.postID, text)
	}

	if err == nil || errorx.Is(err, errorx.AlreadyProcessed) || errorx.Is(err, errorx.NotFound) {
		d.mu.Lock()
		if current, ok := d.pending[moderatorID]; ok && current == decision {
			delete(d.pending, moderatorID)
		}
		d.mu.Unlock()
	}

	return true, post, err
}

func (d *moderationDomain) Approve(
	ctx context.Context, moderatorID int64, postID, link string,
) (*entity.Post, error) {
	link = strings.TrimSpace(link)
	if !isHTTPLink(link) {
		return nil, errorx.New(errorx.BadRequest, "The link must start with http:// or https://")
	}

	return d.decide(ctx, moderatorID, postID, entity.ModerationApprove, link, "", nil)
}

func (d *moderationDomain) Reject(
	ctx context.Context, moderatorID int64, postID, reason string,
) (*entity.Post, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errorx.New(errorx.BadRequest, "The reason must not be empty")
	}

	return d.decide(ctx, moderatorID, postID, entity.ModerationReject, "", reason, nil)
}

// Edit replaces the text of the post and publishes it with the default
// reference.
func (d *moderationDomain) Edit(
	ctx context.Context, moderatorID int64, postID, text string,
) (*entity.Post, error) {
	text = strings.TrimSpace(text)
	cfg := xcontext.Configs(ctx)
	if text == "" {
		return nil, errorx.New(errorx.BadRequest, "The text must not be empty")
	}

	if len([]rune(text)) > cfg.Draft.MaxTextLength {
		return nil, errorx.New(errorx.BadRequest, "The text is too long (max %d characters)", cfg.Draft.MaxTextLength)
	}

	link := cfg.Moderation.DefaultLink
	if link == "" {
		link = cfg.Telegram.ChannelLink
	}

	return d.decide(ctx, moderatorID, postID, entity.ModerationEdit, link, "", &text)
}

func (d *moderationDomain) ListPending(
	ctx context.Context, moderatorID int64, limit int,
) ([]entity.Post, error) {
	if !xcontext.Configs(ctx).Roles.IsModerator(moderatorID) {
		return nil, errorx.New(errorx.PermissionDenied, "Access denied")
	}

	if limit <= 0 {
		limit = xcontext.Configs(ctx).Moderation.PendingPage
	}

	posts, err := d.postRepo.GetPending(ctx, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending posts: %v", err)
		return nil, errorx.Unknown
	}

	return posts, nil
}

// decide publishes the post when needed and only then commits the decision.
// A failed publication leaves the post pending.
func (d *moderationDomain) decide(
	ctx context.Context,
	moderatorID int64,
	postID string,
	action entity.ModerationAction,
	link, reason string,
	text *string,
) (*entity.Post, error) {
	if !xcontext.Configs(ctx).Roles.IsModerator(moderatorID) {
		return nil, errorx.New(errorx.PermissionDenied, "Access denied")
	}

	if _, busy := d.inflight.LoadOrStore(postID, moderatorID); busy {
		return nil, errorx.New(errorx.Unavailable, "The post is being processed, try again later")
	}
	defer d.inflight.Delete(postID)

	post, err := d.getPendingPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if text != nil {
		post.Text = *text
	}

	status := entity.PostApproved
	if action == entity.ModerationReject {
		status = entity.PostRejected
	}

	if status == entity.PostApproved {
		if err := d.publish(ctx, post); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot publish post %s: %v", post.ID, err)
			return nil, errorx.New(errorx.Unavailable, "Publication failed, try again")
		}
	}

	now := time.Now()
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err = d.postRepo.CheckAndDecide(ctx, post.ID, repository.PostDecision{
		Status:        status,
		ModeratorID:   moderatorID,
		DecidedAt:     sql.NullTime{Time: now, Valid: true},
		PublishedLink: link,
		Text:          text,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.AlreadyProcessed, "Post was already processed")
		}

		xcontext.Logger(ctx).Errorf("Cannot decide post %s: %v", post.ID, err)
		return nil, errorx.Unknown
	}

	log := &entity.ModerationLog{
		PostID:      post.ID,
		ModeratorID: moderatorID,
		Action:      action,
		Reason:      reason,
		Link:        link,
	}
	if text != nil {
		log.EditedText = *text
	}

	if err := d.logRepo.Create(ctx, log); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create moderation log: %v", err)
		return nil, errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit decision of post %s: %v", post.ID, err)
		return nil, errorx.Unknown
	}

	post.Status = status
	post.ModeratorID = sql.NullInt64{Int64: moderatorID, Valid: true}
	post.DecidedAt = sql.NullTime{Time: now, Valid: true}
	post.PublishedLink = link

	common.IncCounter(common.ModerationDecisionTotal, string(action))
	d.markModerationMessage(ctx, post, action)
	d.notifyAuthor(ctx, post, reason)

	if status == entity.PostApproved && d.xp != nil {
		amount := xcontext.Configs(ctx).XP.Approved
		if _, err := d.xp.AwardXP(ctx, post.UserID, amount); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot award xp to user %d: %v", post.UserID, err)
		}
	}

	event := newPostEvent(post, now)
	event.ModeratorID = moderatorID
	event.Link = link
	publishEvent(ctx, d.publisher, TopicPostDecided, event)

	return post, nil
}

func (d *moderationDomain) getPendingPost(ctx context.Context, postID string) (*entity.Post, error) {
	post, err := d.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found post %s", postID)
		}

		xcontext.Logger(ctx).Errorf("Cannot get post %s: %v", postID, err)
		return nil, errorx.Unknown
	}

	if post.Status != entity.PostPending {
		return nil, errorx.New(errorx.AlreadyProcessed, "Post was already processed")
	}

	return post, nil
}

// publish sends the post to the destination chosen at submission. Pinning
// is best effort.
func (d *moderationDomain) publish(ctx context.Context, post *entity.Post) error {
	cfg := xcontext.Configs(ctx)

	chatID := cfg.Telegram.ChannelID
	if post.Destination == entity.DestinationPinnedChat {
		chatID = cfg.Telegram.ActualChatID
	}

	if len(post.Media) > 0 {
		if _, err := d.notifier.SendMedia(ctx, chatID, post.Media, ""); err != nil {
			return err
		}
	}

	ref, err := d.notifier.SendText(ctx, chatID, RenderPublication(post, cfg.Moderation.Signature), nil)
	if err != nil {
		return err
	}

	if post.Destination == entity.DestinationPinnedChat {
		if err := d.notifier.Pin(ctx, ref); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot pin post %s: %v", post.ID, err)
		}
	}

	return nil
}

func (d *moderationDomain) markModerationMessage(
	ctx context.Context, post *entity.Post, action entity.ModerationAction,
) {
	if post.ModerationMessageID == 0 {
		return
	}

	var mark string
	switch action {
	case entity.ModerationApprove:
		mark = "✅ APPROVED"
	case entity.ModerationReject:
		mark = "❌ REJECTED"
	case entity.ModerationEdit:
		mark = "✏️ EDITED AND APPROVED"
	}

	cfg := xcontext.Configs(ctx)
	ref := client.MessageRef{ChatID: cfg.Telegram.ModerationChatID, MessageID: post.ModerationMessageID}
	text := fmt.Sprintf("%s by %d\n\n%s", mark, post.ModeratorID.Int64,
		RenderModeration(post, &entity.User{ID: post.UserID}, cfg.Moderation.Signature))
	if err := d.notifier.EditText(ctx, ref, text, nil); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot update moderation message of post %s: %v", post.ID, err)
	}
}

// notifyAuthor never fails the decision, an author who blocked the bot is
// expected.
func (d *moderationDomain) notifyAuthor(ctx context.Context, post *entity.Post, reason string) {
	var text string
	var kb client.Keyboard
	if post.Status == entity.PostApproved {
		text = fmt.Sprintf("✅ Your publication was approved!\n\nLink: %s", post.PublishedLink)
		kb = client.Keyboard{{{Text: "📺 Open", URL: post.PublishedLink}}}
	} else {
		text = fmt.Sprintf("❌ Your publication was rejected.\n\nReason: %s", reason)
	}

	_, err := d.notifier.SendText(ctx, post.UserID, text, kb)
	switch {
	case err == nil:
	case errors.Is(err, client.ErrRecipientUnreachable):
		xcontext.Logger(ctx).Infof("Author %d of post %s is unreachable", post.UserID, post.ID)
	default:
		xcontext.Logger(ctx).Warnf("Cannot notify author of post %s: %v", post.ID, err)
	}
}

func isHTTPLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
