package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/trixlive/backend/internal/domain"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/enum"
	"github.com/trixlive/backend/pkg/xcontext"
)

const (
	defaultTopSize = 10
	maxTopSize     = 50
)

func (r *Router) start(ctx context.Context, ev Event, args string) (*reply, error) {
	user, err := r.users.StartWithReferral(ctx, ev.From, strings.TrimSpace(args))
	if err != nil {
		return nil, err
	}

	if !ev.Private {
		return nil, nil
	}

	text := fmt.Sprintf("👋 Hi, %s!\n\nHere you can publish posts and listings to the community channel.",
		user.DisplayName())
	if r.botName != "" {
		text += fmt.Sprintf("\n\nYour invite link: https://t.me/%s?start=%s", r.botName, user.ReferralCode)
	}

	return &reply{Text: text, Keyboard: mainMenu()}, nil
}

func (r *Router) help(ctx context.Context, ev Event, args string) (*reply, error) {
	lines := []string{
		"/start, /menu: main menu",
		"/profile: your xp and restrictions",
		"/top [size]: leaderboard",
		"/cancel: drop the current draft or decision",
		"/gamesinfo: games and how to play",
	}

	roles := xcontext.Configs(ctx).Roles
	if roles.IsModerator(ev.From.ID) {
		lines = append(lines,
			"",
			"/pending: posts waiting for a decision",
			"/ban <user_id> [reason], /unban <user_id>",
			"/mute <user_id> <30m|2h|1d> [reason], /unmute <user_id>",
			"/cdreset <user_id>: clear the publication cooldown",
		)
	}

	if roles.IsAdmin(ev.From.ID) {
		lines = append(lines, "/stats, /broadcast <text>, /admgamesinfo")
	}

	return &reply{Text: strings.Join(lines, "\n")}, nil
}

func (r *Router) menu(ctx context.Context, ev Event, args string) (*reply, error) {
	return &reply{Text: "Choose what you want to do.", Keyboard: mainMenu()}, nil
}

func (r *Router) cancel(ctx context.Context, ev Event, args string) (*reply, error) {
	cancelled := r.publication.Cancel(ctx, ev.From.ID)
	if r.moderation.CancelDecision(ctx, ev.From.ID) {
		cancelled = true
	}

	if !cancelled {
		return &reply{Text: "Nothing to cancel."}, nil
	}

	return &reply{Text: "Cancelled.", Keyboard: mainMenu()}, nil
}

func (r *Router) profile(ctx context.Context, ev Event, args string) (*reply, error) {
	profile, err := r.users.Profile(ctx, ev.From.ID)
	if err != nil {
		return nil, err
	}

	lines := []string{
		fmt.Sprintf("👤 %s", profile.User.DisplayName()),
		fmt.Sprintf("⭐️ %d XP, %s", profile.User.XP, profile.Level.Title),
	}

	if profile.NextLevel != nil {
		lines = append(lines, fmt.Sprintf("⬆️ %d XP to %s",
			profile.NextLevel.MinXP-profile.User.XP, profile.NextLevel.Title))
	}

	if profile.Rank > 0 {
		lines = append(lines, fmt.Sprintf("🏆 Rank #%d", profile.Rank))
	}

	if allowed, remaining := r.gate.CanSubmit(ctx, ev.From.ID); !allowed && remaining > 0 {
		if remaining == domain.Forever {
			lines = append(lines, "🚫 Publications are not available")
		} else {
			lines = append(lines, fmt.Sprintf("⏳ Next publication in %s", domain.FormatRemaining(remaining)))
		}
	}

	for _, restriction := range profile.Restrictions {
		line := fmt.Sprintf("• %s %s", restriction.CreatedAt.Format("2006-01-02"), restriction.Action)
		if restriction.Reason != "" {
			line += ": " + restriction.Reason
		}
		lines = append(lines, line)
	}

	return &reply{Text: strings.Join(lines, "\n")}, nil
}

func (r *Router) top(ctx context.Context, ev Event, args string) (*reply, error) {
	req := topArgs{Size: defaultTopSize}
	if err := decodeArgs(args, 0, &req, "/top [size]", "size"); err != nil {
		return nil, err
	}

	entries, err := r.users.Top(ctx, min(req.Size, maxTopSize))
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return &reply{Text: "The leaderboard is empty."}, nil
	}

	lines := []string{"🏆 Top"}
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s: %d XP", i+1, e.Name, e.XP))
	}

	return &reply{Text: strings.Join(lines, "\n")}, nil
}

// pending shows the posts waiting for a decision again, with their buttons.
func (r *Router) pending(ctx context.Context, ev Event, args string) (*reply, error) {
	posts, err := r.moderation.ListPending(ctx, ev.From.ID, 0)
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return &reply{Text: "No pending posts."}, nil
	}

	signature := xcontext.Configs(ctx).Moderation.Signature
	for i := range posts {
		post := &posts[i]
		text := domain.RenderModeration(post, &entity.User{ID: post.UserID}, signature)
		if _, err := r.notifier.SendText(ctx, ev.ChatID, text, domain.ModerationKeyboard(post)); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot show pending post %s: %v", post.ID, err)
		}
	}

	return &reply{Text: fmt.Sprintf("%d pending posts.", len(posts))}, nil
}

func (r *Router) ban(ctx context.Context, ev Event, args string) (*reply, error) {
	var req userArgs
	if err := decodeArgs(args, 1, &req, "/ban <user_id> [reason]", "user_id", "reason"); err != nil {
		return nil, err
	}

	if err := r.users.Ban(ctx, ev.From.ID, req.UserID, req.Reason); err != nil {
		return nil, err
	}

	return &reply{Text: fmt.Sprintf("🚫 User %d banned.", req.UserID)}, nil
}

func (r *Router) unban(ctx context.Context, ev Event, args string) (*reply, error) {
	var req userArgs
	if err := decodeArgs(args, 1, &req, "/unban <user_id>", "user_id"); err != nil {
		return nil, err
	}

	if err := r.users.Unban(ctx, ev.From.ID, req.UserID); err != nil {
		return nil, err
	}

	return &reply{Text: fmt.Sprintf("✅ User %d unbanned.", req.UserID)}, nil
}

func (r *Router) mute(ctx context.Context, ev Event, args string) (*reply, error) {
	var req muteArgs
	usage := "/mute <user_id> <30m|2h|1d> [reason]"
	if err := decodeArgs(args, 2, &req, usage, "user_id", "duration", "reason"); err != nil {
		return nil, err
	}

	d, err := domain.ParseDuration(req.Duration)
	if err != nil {
		return nil, err
	}

	if err := r.users.Mute(ctx, ev.From.ID, req.UserID, d, req.Reason); err != nil {
		return nil, err
	}

	return &reply{Text: fmt.Sprintf("🔇 User %d muted for %s.", req.UserID, domain.FormatRemaining(d))}, nil
}

func (r *Router) unmute(ctx context.Context, ev Event, args string) (*reply, error) {
	var req userArgs
	if err := decodeArgs(args, 1, &req, "/unmute <user_id>", "user_id"); err != nil {
		return nil, err
	}

	if err := r.users.Unmute(ctx, ev.From.ID, req.UserID); err != nil {
		return nil, err
	}

	return &reply{Text: fmt.Sprintf("🔊 User %d unmuted.", req.UserID)}, nil
}

func (r *Router) cooldownReset(ctx context.Context, ev Event, args string) (*reply, error) {
	var req userArgs
	if err := decodeArgs(args, 1, &req, "/cdreset <user_id>", "user_id"); err != nil {
		return nil, err
	}

	if err := r.gate.Reset(ctx, ev.From.ID, req.UserID); err != nil {
		return nil, err
	}

	return &reply{Text: fmt.Sprintf("⏱ Cooldown of user %d cleared.", req.UserID)}, nil
}

func (r *Router) stats(ctx context.Context, ev Event, args string) (*reply, error) {
	stat, err := r.users.Statistic(ctx, ev.From.ID)
	if err != nil {
		return nil, err
	}

	lines := []string{
		"📊 Statistic",
		fmt.Sprintf("Users: %d (banned %d, muted %d)", stat.Users.Total, stat.Users.Banned, stat.Users.Muted),
	}

	for _, status := range enum.Values[entity.PostStatus]() {
		if status == entity.PostEdited {
			continue
		}

		lines = append(lines, fmt.Sprintf("Posts %s: %d", enum.ToString(status), stat.Posts[status]))
	}

	return &reply{Text: strings.Join(lines, "\n")}, nil
}

func (r *Router) broadcast(ctx context.Context, ev Event, args string) (*reply, error) {
	delivered, err := r.users.Broadcast(ctx, ev.From.ID, strings.TrimSpace(args))
	if err != nil {
		return nil, err
	}

	return &reply{Text: fmt.Sprintf("📣 Delivered to %d users.", delivered)}, nil
}
