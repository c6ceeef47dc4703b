package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/common"
	"github.com/trixlive/backend/internal/domain"
	"github.com/trixlive/backend/internal/domain/draft"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/xcontext"
)

type reply struct {
	Text     string
	Keyboard client.Keyboard

	// Alert shows the text of a callback answer as a popup instead of a
	// message.
	Alert bool
}

type commandFunc func(ctx context.Context, ev Event, args string) (*reply, error)

// Router turns inbound events into domain calls and sends the replies.
type Router struct {
	notifier    client.Notifier
	users       domain.UserDomain
	publication domain.PublicationDomain
	moderation  domain.ModerationDomain
	games       domain.GameDomain
	gate        *domain.CooldownGate
	botName     string

	commands map[string]commandFunc
}

func NewRouter(
	notifier client.Notifier,
	users domain.UserDomain,
	publication domain.PublicationDomain,
	moderation domain.ModerationDomain,
	games domain.GameDomain,
	gate *domain.CooldownGate,
	botName string,
) *Router {
	r := &Router{
		notifier:    notifier,
		users:       users,
		publication: publication,
		moderation:  moderation,
		games:       games,
		gate:        gate,
		botName:     botName,
	}

	r.commands = map[string]commandFunc{
		"start":     r.start,
		"help":      r.help,
		"menu":      r.menu,
		"cancel":    r.cancel,
		"profile":   r.profile,
		"top":       r.top,
		"pending":   r.pending,
		"ban":       r.ban,
		"unban":     r.unban,
		"mute":      r.mute,
		"unmute":    r.unmute,
		"cdreset":   r.cooldownReset,
		"stats":     r.stats,
		"broadcast": r.broadcast,

		"gamesinfo":    r.gamesInfo,
		"admgamesinfo": r.adminGamesInfo,
	}

	return r
}

// Handle processes one event. Errors are reported to the sender, never
// returned.
func (r *Router) Handle(ctx context.Context, ev Event) {
	start := time.Now()
	common.IncCounter(common.BotUpdateTotal, string(ev.Kind))
	defer func() {
		common.ObserveHistogram(common.BotUpdateDurationSeconds, time.Since(start).Seconds(), string(ev.Kind))
	}()

	// /start registers the user itself so that the referral is not lost.
	if name, _, ok := ev.Command(); !ok || name != "start" {
		if _, _, err := r.users.Touch(ctx, ev.From); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot register user %d: %v", ev.From.ID, err)
		}
	}

	var resp *reply
	var err error
	switch ev.Kind {
	case EventCallback:
		resp, err = r.handleCallback(ctx, ev)
	case EventText, EventMedia:
		resp, err = r.handleMessage(ctx, ev)
	}

	r.respond(ctx, ev, resp, err)
}

func (r *Router) respond(ctx context.Context, ev Event, resp *reply, err error) {
	var text string
	var kb client.Keyboard
	alert := false
	if err != nil {
		text = errorMessage(ctx, err)
		alert = true
	} else if resp != nil {
		text, kb, alert = resp.Text, resp.Keyboard, resp.Alert
	}

	if ev.Kind == EventCallback {
		answer := ""
		if alert {
			answer = text
		}

		if err := r.notifier.AnswerCallback(ctx, ev.CallbackID, answer, alert); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot answer callback: %v", err)
		}

		if alert {
			return
		}
	}

	if text == "" {
		return
	}

	if _, err := r.notifier.SendText(ctx, ev.ChatID, text, kb); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot reply to chat %d: %v", ev.ChatID, err)
	}
}

// errorMessage returns the text shown to the user. Unexpected errors are
// logged and hidden behind a generic message.
func errorMessage(ctx context.Context, err error) string {
	var errx errorx.Error
	if errors.As(err, &errx) {
		return errx.Message
	}

	xcontext.Logger(ctx).Errorf("Cannot handle update: %v", err)
	return errorx.Unknown.Message
}

func (r *Router) handleMessage(ctx context.Context, ev Event) (*reply, error) {
	if name, args, ok := ev.Command(); ok {
		return r.handleCommand(ctx, ev, name, args)
	}

	cfg := xcontext.Configs(ctx)
	if ev.Kind == EventText && cfg.Roles.IsModerator(ev.From.ID) {
		handled, post, err := r.moderation.HandleFollowUp(ctx, ev.From.ID, ev.Text)
		if handled {
			if err != nil {
				return nil, err
			}

			return &reply{Text: decisionSummary(post)}, nil
		}
	}

	if ev.Private {
		if r.publication.HasDraft(ev.From.ID) {
			prompt, err := r.publication.Submit(ctx, ev.From.ID, draft.Input{Text: ev.Text, Media: ev.Media})
			if err != nil {
				return nil, err
			}

			return r.promptReply(ctx, ev.From.ID, prompt)
		}

		return &reply{Text: "Choose what you want to do.", Keyboard: mainMenu()}, nil
	}

	if ev.ChatID != cfg.Telegram.ModerationChatID {
		r.awardActivity(ctx, ev)
	}

	return nil, nil
}

func (r *Router) handleCommand(ctx context.Context, ev Event, name, args string) (*reply, error) {
	if cmd, ok := r.commands[name]; ok {
		return cmd(ctx, ev, args)
	}

	variant, action, ok := domain.ResolveVariant(xcontext.Configs(ctx).Game.Variants, name)
	if ok {
		return r.gameCommand(ctx, ev, variant, action, args)
	}

	if !ev.Private {
		// Commands of other bots in groups.
		return nil, nil
	}

	return nil, errorx.New(errorx.NotFound, "Unknown command, send /help")
}

func (r *Router) handleCallback(ctx context.Context, ev Event) (*reply, error) {
	scope, rest, _ := strings.Cut(ev.Data, ":")
	switch scope {
	case "menu":
		return r.menuCallback(ctx, ev)
	case "pub", "piar":
		if !ev.Private {
			return nil, errorx.New(errorx.BadRequest, "Open a private chat with the bot to publish")
		}

		return r.draftCallback(ctx, ev, rest)
	case "mod":
		if rest == actionCancel {
			if !r.moderation.CancelDecision(ctx, ev.From.ID) {
				return &reply{Text: "Nothing to cancel", Alert: true}, nil
			}

			return &reply{Text: "Decision cancelled", Alert: true}, nil
		}

		action, postID, ok := domain.ParseModerationCallback(ev.Data)
		if !ok {
			return nil, errorx.New(errorx.BadRequest, "Unknown action")
		}

		prompt, err := r.moderation.BeginDecision(ctx, ev.From.ID, postID, action)
		if err != nil {
			return nil, err
		}

		return &reply{
			Text:     prompt,
			Keyboard: client.Keyboard{{{Text: "✖️ Cancel", Data: "mod:" + actionCancel}}},
		}, nil
	default:
		return nil, errorx.New(errorx.BadRequest, "Unknown action")
	}
}

func (r *Router) menuCallback(ctx context.Context, ev Event) (*reply, error) {
	switch ev.Data {
	case menuMain:
		return &reply{Text: "Choose what you want to do.", Keyboard: mainMenu()}, nil
	case menuPublish:
		return &reply{Text: "Choose a category.", Keyboard: topicsMenu()}, nil
	case menuProfile:
		return r.profile(ctx, ev, "")
	case menuTop:
		return r.top(ctx, ev, "")
	default:
		return nil, errorx.New(errorx.BadRequest, "Unknown action")
	}
}

func (r *Router) draftCallback(ctx context.Context, ev Event, data string) (*reply, error) {
	userID := ev.From.ID
	action, arg, _ := strings.Cut(data, ":")

	var prompt draft.Prompt
	var err error
	switch action {
	case actionTopic:
		prompt, err = r.publication.Start(ctx, userID, arg)
	case actionDone:
		prompt, err = r.publication.FinishMedia(ctx, userID)
	case actionSkip:
		prompt, err = r.publication.Submit(ctx, userID, draft.Input{Text: draft.Skip})
	case actionEdit:
		prompt, err = r.publication.Edit(ctx, userID)
	case actionBack:
		var reset bool
		prompt, reset, err = r.publication.Back(ctx, userID)
		if err == nil && reset {
			r.publication.Cancel(ctx, userID)
			return &reply{Text: "Choose a category.", Keyboard: topicsMenu()}, nil
		}
	case actionAnon:
		if err := r.publication.SetAnonymous(ctx, userID, arg == "on"); err != nil {
			return nil, err
		}

		return r.previewReply(ctx, userID, "")
	case actionCancel:
		if !r.publication.Cancel(ctx, userID) {
			return &reply{Text: "You have no draft", Alert: true}, nil
		}

		return &reply{Text: "Publication cancelled.", Keyboard: mainMenu()}, nil
	case actionConfirm:
		post, err := r.publication.Confirm(ctx, userID)
		if err != nil {
			return nil, err
		}

		return &reply{
			Text:     fmt.Sprintf("✅ Your publication was sent to moderation (id %s).", post.ID),
			Keyboard: mainMenu(),
		}, nil
	default:
		return nil, errorx.New(errorx.BadRequest, "Unknown action")
	}

	if err != nil {
		return nil, err
	}

	return r.promptReply(ctx, userID, prompt)
}

func (r *Router) promptReply(ctx context.Context, userID int64, prompt draft.Prompt) (*reply, error) {
	if _, ok := prompt.Step.(draft.PreviewStep); ok {
		return r.previewReply(ctx, userID, prompt.Text)
	}

	kind, _ := r.publication.DraftKind(userID)
	return &reply{
		Text:     fmt.Sprintf("Step %d of %d\n\n%s", prompt.Number, prompt.Total, prompt.Text),
		Keyboard: stepKeyboard(kind, prompt, false),
	}, nil
}

func (r *Router) previewReply(ctx context.Context, userID int64, hint string) (*reply, error) {
	preview, err := r.publication.Preview(ctx, userID)
	if err != nil {
		return nil, err
	}

	if hint == "" {
		hint = "Check the preview and send it to moderation."
	}

	post := domain.DraftPost(preview)
	text := "👀 Preview\n\n" + domain.RenderPublication(post, xcontext.Configs(ctx).Moderation.Signature)
	if len(post.Media) > 0 {
		text += fmt.Sprintf("\n\n📎 Media: %d", len(post.Media))
	}
	if post.Anonymous {
		text += "\n🙈 Anonymous"
	}

	return &reply{
		Text:     text + "\n\n" + hint,
		Keyboard: stepKeyboard(preview.Kind, draft.Prompt{Step: draft.PreviewStep{}}, preview.Anonymous),
	}, nil
}

// awardActivity credits xp for messages written in the community chats.
func (r *Router) awardActivity(ctx context.Context, ev Event) {
	cfg := xcontext.Configs(ctx).XP
	amount := cfg.Message
	if ev.Kind == EventMedia {
		amount = cfg.Media
	}

	if _, err := r.users.AwardXP(ctx, ev.From.ID, amount); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot award activity xp to user %d: %v", ev.From.ID, err)
	}
}

func decisionSummary(post *entity.Post) string {
	switch post.Status {
	case entity.PostApproved:
		return fmt.Sprintf("✅ Post %s published: %s", post.ID, post.PublishedLink)
	case entity.PostRejected:
		return fmt.Sprintf("❌ Post %s rejected", post.ID)
	default:
		return fmt.Sprintf("Post %s is %s", post.ID, post.Status)
	}
}
