package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trixlive/backend/internal/domain"
	"github.com/trixlive/backend/internal/domain/draft"
	"github.com/trixlive/backend/internal/domain/game"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/internal/repository"
	"github.com/trixlive/backend/pkg/testutil"
	"github.com/trixlive/backend/pkg/xcontext"
)

type routerSuite struct {
	router   *Router
	notifier *testutil.MockNotifier
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func newRouterSuite(ctx context.Context) *routerSuite {
	node := testutil.NewSnowflakeNode()
	notifier := &testutil.MockNotifier{}
	publisher := &testutil.MockPublisher{}
	userRepo := repository.NewUserRepository()
	postRepo := repository.NewPostRepository()
	restrictionRepo := repository.NewRestrictionLogRepository(node)

	gate := domain.NewCooldownGate(userRepo, restrictionRepo)
	users := domain.NewUserDomain(userRepo, postRepo, restrictionRepo, &testutil.MockRedisClient{}, notifier)
	publication := domain.NewPublicationDomain(
		draft.NewStore(),
		postRepo,
		userRepo,
		gate,
		domain.NewContentFilter(xcontext.Configs(ctx).Filter.BannedSubstrings),
		notifier,
		publisher,
	)
	moderation := domain.NewModerationDomain(
		postRepo, repository.NewModerationLogRepository(node), notifier, publisher, users)
	games := domain.NewGameDomain(game.NewLotteryRegistry(), game.NewWordContest(0), gate, notifier)

	return &routerSuite{
		router:   NewRouter(notifier, users, publication, moderation, games, gate, "TrixBot"),
		notifier: notifier,
		userRepo: userRepo,
		postRepo: postRepo,
	}
}

func privateText(user *entity.User, text string) Event {
	return Event{
		Kind:    EventText,
		ChatID:  user.ID,
		Private: true,
		From:    domain.UserInfo{ID: user.ID, Username: user.Username, FirstName: user.FirstName},
		Text:    text,
	}
}

func callback(chatID int64, user *entity.User, data string) Event {
	return Event{
		Kind:       EventCallback,
		ChatID:     chatID,
		Private:    chatID == user.ID,
		From:       domain.UserInfo{ID: user.ID, Username: user.Username},
		CallbackID: "cb",
		Data:       data,
	}
}

func (s *routerSuite) lastTo(t *testing.T, chatID int64) testutil.SentMessage {
	sent := s.notifier.SentTo(chatID)
	require.NotEmpty(t, sent)
	return sent[len(sent)-1]
}

func Test_Router_PublishAndApprove(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	s := newRouterSuite(ctx)
	cfg := xcontext.Configs(ctx)
	alice := testutil.User1

	s.router.Handle(ctx, callback(alice.ID, alice, menuPublish))
	require.Contains(t, s.lastTo(t, alice.ID).Text, "Choose a category")

	s.router.Handle(ctx, callback(alice.ID, alice, "pub:topic:announcements:sell"))
	require.Contains(t, s.lastTo(t, alice.ID).Text, "Step 1 of 2")

	s.router.Handle(ctx, privateText(alice, "Selling a bike"))
	require.Contains(t, s.lastTo(t, alice.ID).Text, "Step 2 of 2")

	s.router.Handle(ctx, callback(alice.ID, alice, "pub:done"))
	preview := s.lastTo(t, alice.ID)
	require.Contains(t, preview.Text, "Selling a bike")
	require.Equal(t, "pub:confirm", preview.Keyboard[0][0].Data)

	s.router.Handle(ctx, callback(alice.ID, alice, "pub:confirm"))
	require.Contains(t, s.lastTo(t, alice.ID).Text, "sent to moderation")

	announced := s.lastTo(t, cfg.Telegram.ModerationChatID)
	require.Contains(t, announced.Text, "Selling a bike")
	approve := announced.Keyboard[0][0].Data

	moderator := testutil.Moderator1
	s.router.Handle(ctx, callback(cfg.Telegram.ModerationChatID, moderator, approve))
	s.router.Handle(ctx, Event{
		Kind:   EventText,
		ChatID: cfg.Telegram.ModerationChatID,
		From:   domain.UserInfo{ID: moderator.ID, Username: moderator.Username},
		Text:   "https://t.me/channel/42",
	})
	require.Contains(t, s.lastTo(t, cfg.Telegram.ModerationChatID).Text, "published")

	require.Len(t, s.notifier.SentTo(cfg.Telegram.ChannelID), 1)
	require.Contains(t, s.lastTo(t, alice.ID).Text, "https://t.me/channel/42")

	counts, err := s.postRepo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts[entity.PostApproved])
}

func Test_Router_Errors(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	s := newRouterSuite(ctx)
	alice := testutil.User1

	// Unknown commands are answered in private chats only.
	s.router.Handle(ctx, privateText(alice, "/whatever"))
	require.Contains(t, s.lastTo(t, alice.ID).Text, "Unknown command")

	group := privateText(alice, "/whatever")
	group.ChatID, group.Private = -1003, false
	s.router.Handle(ctx, group)
	require.Empty(t, s.notifier.SentTo(-1003))

	// Moderator commands are refused to plain users.
	s.router.Handle(ctx, privateText(alice, "/ban 1002 spam"))
	require.Equal(t, "Access denied", s.lastTo(t, alice.ID).Text)

	// Errors of callbacks are shown as alerts.
	s.router.Handle(ctx, callback(alice.ID, alice, "pub:confirm"))
	answered := s.notifier.Answered()
	require.Contains(t, answered[len(answered)-1], "no draft")
}

func Test_Router_ModeratorCommands(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	s := newRouterSuite(ctx)
	moderator := testutil.Moderator1

	s.router.Handle(ctx, privateText(moderator, "/mute 1002 2h flood"))
	require.Contains(t, s.lastTo(t, moderator.ID).Text, "muted for")

	user, err := s.userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.True(t, user.MuteUntil.Valid)

	s.router.Handle(ctx, privateText(moderator, "/unmute 1002"))
	require.Contains(t, s.lastTo(t, moderator.ID).Text, "unmuted")

	s.router.Handle(ctx, privateText(moderator, "/mute 1002"))
	require.Contains(t, s.lastTo(t, moderator.ID).Text, "Usage")
}

func Test_Router_StartAndActivity(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	s := newRouterSuite(ctx)

	newcomer := &entity.User{ID: 5005, Username: "carol"}
	s.router.Handle(ctx, privateText(newcomer, "/start aliceref"))
	require.Contains(t, s.lastTo(t, newcomer.ID).Text, "https://t.me/TrixBot?start=")

	carol, err := s.userRepo.GetByID(ctx, newcomer.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.ID, carol.ReferredBy.Int64)

	cfg := xcontext.Configs(ctx)
	s.router.Handle(ctx, Event{
		Kind:   EventText,
		ChatID: cfg.Telegram.ActualChatID,
		From:   domain.UserInfo{ID: newcomer.ID, Username: newcomer.Username},
		Text:   "hi all",
	})
	require.Empty(t, s.notifier.SentTo(cfg.Telegram.ActualChatID))

	carol, err = s.userRepo.GetByID(ctx, newcomer.ID)
	require.NoError(t, err)
	require.Equal(t, cfg.XP.Message, carol.XP)
}

func Test_Router_Lottery(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	s := newRouterSuite(ctx)
	alice := testutil.User1

	s.router.Handle(ctx, privateText(alice, "/play3xroll 9999"))
	require.Contains(t, s.lastTo(t, alice.ID).Text, "Your number is")

	s.router.Handle(ctx, privateText(alice, "/play3xroll 9999"))
	require.Contains(t, s.lastTo(t, alice.ID).Text, "already have")

	admin := testutil.Admin1
	s.router.Handle(ctx, privateText(admin, "/play3xroll 1"))
	require.Contains(t, s.lastTo(t, admin.ID).Text, "alice")

	s.router.Handle(ctx, privateText(admin, "/play3xunknown"))
	require.Contains(t, s.lastTo(t, admin.ID).Text, "Unknown game command")
}

func Test_Router_WordContest(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	s := newRouterSuite(ctx)
	admin := testutil.Admin1
	bob := testutil.User2

	s.router.Handle(ctx, privateText(admin, "/play3xwordadd apple"))
	s.router.Handle(ctx, privateText(admin, "/play3xwordon"))

	sent := s.notifier.SentTo(admin.ID)
	require.GreaterOrEqual(t, len(sent), 2)
	require.Contains(t, sent[len(sent)-2].Text, `"apple"`)
	require.Contains(t, sent[len(sent)-1].Text, "contest has started")

	s.router.Handle(ctx, privateText(admin, "/play3xwordinfo"))
	require.Contains(t, s.lastTo(t, admin.ID).Text, "apple")

	s.router.Handle(ctx, privateText(bob, "/play3xwordinfo"))
	require.NotContains(t, s.lastTo(t, bob.ID).Text, "apple")

	s.router.Handle(ctx, privateText(bob, "/play3xsay Apple"))
	require.Contains(t, s.lastTo(t, bob.ID).Text, "Correct")
}

func Test_Router_GamesInfo(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	s := newRouterSuite(ctx)
	admin := testutil.Admin1
	alice := testutil.User1

	s.router.Handle(ctx, privateText(alice, "/gamesinfo"))
	info := s.lastTo(t, alice.ID).Text
	for _, variant := range xcontext.Configs(ctx).Game.Variants {
		require.Contains(t, info, "/"+variant+"say <word>")
	}

	s.router.Handle(ctx, privateText(alice, "/play3xgamesinfo"))
	info = s.lastTo(t, alice.ID).Text
	require.Contains(t, info, "/play3xroll 9999")
	require.NotContains(t, info, "playxxx")

	s.router.Handle(ctx, privateText(alice, "/admgamesinfo"))
	require.Equal(t, "Access denied", s.lastTo(t, alice.ID).Text)

	s.router.Handle(ctx, privateText(alice, "/play3xroll 9999"))
	s.router.Handle(ctx, privateText(admin, "/play3xwordadd apple"))
	s.router.Handle(ctx, privateText(admin, "/play3xadmgamesinfo"))
	require.Contains(t, s.lastTo(t, admin.ID).Text,
		"PLAY3X: contest active false, 1 words, 0 winners, 1 lottery participants")
}
