package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trixlive/backend/internal/domain/draft"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/internal/repository"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/testutil"
	"github.com/trixlive/backend/pkg/xcontext"
)

type pipeline struct {
	notifier        *testutil.MockNotifier
	publisher       *testutil.MockPublisher
	redis           *testutil.MockRedisClient
	userRepo        repository.UserRepository
	postRepo        repository.PostRepository
	logRepo         repository.ModerationLogRepository
	restrictionRepo repository.RestrictionLogRepository
	gate            *CooldownGate
	users           *userDomain
	publication     *publicationDomain
	moderation      *moderationDomain
}

func newPipeline(ctx context.Context) *pipeline {
	node := testutil.NewSnowflakeNode()
	p := &pipeline{
		notifier:        &testutil.MockNotifier{},
		publisher:       &testutil.MockPublisher{},
		redis:           &testutil.MockRedisClient{},
		userRepo:        repository.NewUserRepository(),
		postRepo:        repository.NewPostRepository(),
		logRepo:         repository.NewModerationLogRepository(node),
		restrictionRepo: repository.NewRestrictionLogRepository(node),
	}

	p.gate = NewCooldownGate(p.userRepo, p.restrictionRepo)
	p.users = NewUserDomain(p.userRepo, p.postRepo, p.restrictionRepo, p.redis, p.notifier)
	p.publication = NewPublicationDomain(
		draft.NewStore(),
		p.postRepo,
		p.userRepo,
		p.gate,
		NewContentFilter(xcontext.Configs(ctx).Filter.BannedSubstrings),
		p.notifier,
		p.publisher,
	)
	p.moderation = NewModerationDomain(p.postRepo, p.logRepo, p.notifier, p.publisher, p.users)
	return p
}

// submit walks a plain post through the form up to the preview.
func (p *pipeline) submit(t *testing.T, ctx context.Context, userID int64, topic, text string) {
	_, err := p.publication.Start(ctx, userID, topic)
	require.NoError(t, err)

	_, err = p.publication.Submit(ctx, userID, draft.Input{Text: text})
	require.NoError(t, err)

	prompt, err := p.publication.FinishMedia(ctx, userID)
	require.NoError(t, err)
	require.IsType(t, draft.PreviewStep{}, prompt.Step)
}

func Test_publicationDomain_Confirm(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	p := newPipeline(ctx)
	cfg := xcontext.Configs(ctx)

	p.submit(t, ctx, testutil.User1.ID, "announcements:sell", "Selling a bike")

	post, err := p.publication.Confirm(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.PostPending, post.Status)
	require.Equal(t, []string{"#Продам", "#ПродажаБудапешт"}, []string(post.Hashtags))
	require.False(t, p.publication.HasDraft(testutil.User1.ID))

	stored, err := p.postRepo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, "Selling a bike", stored.Text)
	require.Equal(t, entity.DestinationChannel, stored.Destination)
	require.NotZero(t, stored.ModerationMessageID)

	// Moderators got the announcement with decision buttons.
	announced := p.notifier.SentTo(cfg.Telegram.ModerationChatID)
	require.Len(t, announced, 1)
	require.Contains(t, announced[0].Text, "Selling a bike")
	require.Equal(t, "mod:approve:"+post.ID, announced[0].Keyboard[0][0].Data)

	published := p.publisher.Published()
	require.Len(t, published, 1)
	require.Equal(t, TopicPostSubmitted, published[0].Topic)

	// The cooldown started.
	allowed, remaining := p.gate.CanSubmit(ctx, testutil.User1.ID)
	require.False(t, allowed)
	require.Greater(t, remaining, time.Hour)

	_, err = p.publication.Start(ctx, testutil.User1.ID, "announcements:sell")
	require.True(t, errorx.Is(err, errorx.Cooldown))
}

func Test_publicationDomain_Confirm_LinkViolation(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	p := newPipeline(ctx)

	p.submit(t, ctx, testutil.User1.ID, "news", "Look at https://example.com")

	_, err := p.publication.Confirm(ctx, testutil.User1.ID)
	require.True(t, errorx.Is(err, errorx.LinkViolation))

	// The draft is kept and no post was created.
	require.True(t, p.publication.HasDraft(testutil.User1.ID))
	count, err := p.postRepo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Zero(t, count[entity.PostPending])

	user, err := p.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, 1, user.LinkViolations)

	// Moderators are not filtered.
	p.submit(t, ctx, testutil.Moderator1ID, "news", "Look at https://example.com")
	_, err = p.publication.Confirm(ctx, testutil.Moderator1ID)
	require.NoError(t, err)
}

func Test_publicationDomain_Confirm_Cooldown(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	p := newPipeline(ctx)

	p.submit(t, ctx, testutil.User1.ID, "overheard", "first")
	// The cooldown starts between preview and confirm.
	p.gate.RecordSubmission(ctx, testutil.User1.ID)

	_, err := p.publication.Confirm(ctx, testutil.User1.ID)
	require.True(t, errorx.Is(err, errorx.Cooldown))
	require.True(t, p.publication.HasDraft(testutil.User1.ID))
}

func Test_publicationDomain_AnnounceFailureKeepsPending(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	p := newPipeline(ctx)
	p.notifier.SendTextFunc = testutil.FailingSendText

	p.submit(t, ctx, testutil.User2.ID, "complaints", "Noisy neighbours")
	post, err := p.publication.Confirm(ctx, testutil.User2.ID)
	require.NoError(t, err)

	pending, err := p.moderation.ListPending(ctx, testutil.Moderator1ID, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, post.ID, pending[0].ID)
	require.Zero(t, pending[0].ModerationMessageID)
}

func Test_publicationDomain_ActualTopic(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	p := newPipeline(ctx)

	p.submit(t, ctx, testutil.User1.ID, "actual", "Bridge closed today")
	require.NoError(t, p.publication.SetAnonymous(ctx, testutil.User1.ID, true))

	post, err := p.publication.Confirm(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.DestinationPinnedChat, post.Destination)
	require.True(t, post.Anonymous)
	require.Equal(t, []string{ActualHashtag}, []string(post.Hashtags))
}

func Test_publicationDomain_AnonymousTopics(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	p := newPipeline(ctx)

	p.submit(t, ctx, testutil.User1.ID, "overheard", "Heard on tram 4")
	preview, err := p.publication.Preview(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.True(t, preview.Anonymous)

	post, err := p.publication.Confirm(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.True(t, post.Anonymous)

	// The author can still sign the post.
	p.submit(t, ctx, testutil.User2.ID, "complaints", "Noisy street")
	require.NoError(t, p.publication.SetAnonymous(ctx, testutil.User2.ID, false))
	preview, err = p.publication.Preview(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.False(t, preview.Anonymous)
}

func Test_publicationDomain_Cancel(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	p := newPipeline(ctx)

	_, err := p.publication.Start(ctx, testutil.User1.ID, "unknown")
	require.True(t, errorx.Is(err, errorx.NotFound))

	_, err = p.publication.Start(ctx, testutil.User1.ID, "services")
	require.NoError(t, err)
	require.True(t, p.publication.Cancel(ctx, testutil.User1.ID))
	require.False(t, p.publication.Cancel(ctx, testutil.User1.ID))

	_, err = p.publication.Confirm(ctx, testutil.User1.ID)
	require.True(t, errorx.Is(err, errorx.NotFound))
}
