package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/trixlive/backend/internal/domain"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/xcontext"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// gameCommand serves "/<variant><action> args", e.g. "/play3xroll 9999".
func (r *Router) gameCommand(ctx context.Context, ev Event, variant, action, args string) (*reply, error) {
	switch action {
	case "roll":
		result, err := r.games.Roll(ctx, variant, ev.From, args)
		if err != nil {
			return nil, err
		}

		if result.Joined {
			if result.Existed {
				return &reply{Text: fmt.Sprintf("🎲 You already have number %d.", result.Number)}, nil
			}

			return &reply{Text: fmt.Sprintf("🎲 Your number is %d. Good luck!", result.Number)}, nil
		}

		lines := []string{fmt.Sprintf("🎲 Drawn number: %d", result.Target), "Winners:"}
		for i, t := range result.Winners {
			lines = append(lines, fmt.Sprintf("%d. %s (%d)", i+1, t.Username, t.Number))
		}

		return &reply{Text: strings.Join(lines, "\n")}, nil

	case "mynumber":
		number, err := r.games.MyNumber(ctx, variant, ev.From.ID)
		if err != nil {
			return nil, err
		}

		return &reply{Text: fmt.Sprintf("🎲 Your number is %d.", number)}, nil

	case "rollreset":
		removed, err := r.games.ResetLottery(ctx, ev.From.ID, variant)
		if err != nil {
			return nil, err
		}

		return &reply{Text: fmt.Sprintf("🎲 Lottery reset, %d participants removed.", removed)}, nil

	case "rollstatus":
		tickets, err := r.games.LotteryStatus(ctx, ev.From.ID, variant)
		if err != nil {
			return nil, err
		}

		lines := []string{fmt.Sprintf("🎲 %s: %d participants", variant, len(tickets))}
		for _, t := range tickets {
			lines = append(lines, fmt.Sprintf("%d: %s", t.Number, t.Username))
		}

		return &reply{Text: strings.Join(lines, "\n")}, nil

	case "wordadd":
		var req wordArgs
		if err := decodeArgs(args, 1, &req, "/"+variant+"wordadd <word>", "word"); err != nil {
			return nil, err
		}

		description, err := r.games.AddWord(ctx, ev.From.ID, variant, req.Word)
		if err != nil {
			return nil, err
		}

		return &reply{Text: "✅ Word added. Description: " + description}, nil

	case "wordedit":
		var req wordArgs
		usage := "/" + variant + "wordedit <word> <description>"
		if err := decodeArgs(args, 2, &req, usage, "word", "description"); err != nil {
			return nil, err
		}

		if err := r.games.EditWord(ctx, ev.From.ID, variant, req.Word, req.Description); err != nil {
			return nil, err
		}

		return &reply{Text: "✅ Description updated."}, nil

	case "wordclear":
		var req wordArgs
		if err := decodeArgs(args, 1, &req, "/"+variant+"wordclear <word>", "word"); err != nil {
			return nil, err
		}

		if err := r.games.RemoveWord(ctx, ev.From.ID, variant, req.Word); err != nil {
			return nil, err
		}

		return &reply{Text: "🗑 Word removed."}, nil

	case "wordon":
		word, err := r.games.StartContest(ctx, ev.From.ID, variant)
		if err != nil {
			return nil, err
		}

		// The secret word only goes to the admin's private chat.
		if _, err := r.notifier.SendText(ctx, ev.From.ID, fmt.Sprintf("🤫 The word of %s is %q", variant, word), nil); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot send the secret word to admin %d: %v", ev.From.ID, err)
		}

		return &reply{Text: fmt.Sprintf("🎯 The %s contest has started! Guess with /%ssay <word>", variant, variant)}, nil

	case "wordoff":
		result, err := r.games.StopContest(ctx, ev.From.ID, variant)
		if err != nil {
			return nil, err
		}

		if !result.WasActive {
			return &reply{Text: "The contest was not running."}, nil
		}

		return &reply{Text: fmt.Sprintf("🛑 Contest stopped, the word was %q.", result.Word)}, nil

	case "anstimeset":
		interval, err := r.games.SetInterval(ctx, ev.From.ID, variant, args)
		if err != nil {
			return nil, err
		}

		return &reply{Text: fmt.Sprintf("⏱ Attempts allowed every %s.", domain.FormatRemaining(interval))}, nil

	case "wordinfoedit":
		if err := r.games.SetDescription(ctx, ev.From.ID, variant, args); err != nil {
			return nil, err
		}

		return &reply{Text: "✅ Contest description updated."}, nil

	case "wordinfo":
		info, err := r.games.ContestInfo(ctx, variant)
		if err != nil {
			return nil, err
		}

		return &reply{Text: contestInfoText(ctx, ev, info.Active, info.Description, info.Words, info.Winners)}, nil

	case "say":
		result, err := r.games.Guess(ctx, variant, ev.From, args)
		if err != nil {
			return nil, err
		}

		if result.Won {
			return &reply{Text: fmt.Sprintf("🏆 Correct! The word was %q.", result.Word)}, nil
		}

		return &reply{Text: fmt.Sprintf("❌ Wrong. Next attempt in %s.", domain.FormatRemaining(result.Remaining))}, nil

	case "gamesinfo":
		return r.gamesInfoFor(ctx, []string{variant})

	case "admgamesinfo":
		return r.adminGamesInfoFor(ctx, ev, []string{variant})

	default:
		return nil, errorx.New(errorx.NotFound, "Unknown game command %s", action)
	}
}

// gamesInfo lists the player commands of every game.
func (r *Router) gamesInfo(ctx context.Context, ev Event, args string) (*reply, error) {
	return r.gamesInfoFor(ctx, xcontext.Configs(ctx).Game.Variants)
}

func (r *Router) adminGamesInfo(ctx context.Context, ev Event, args string) (*reply, error) {
	return r.adminGamesInfoFor(ctx, ev, xcontext.Configs(ctx).Game.Variants)
}

func (r *Router) gamesInfoFor(ctx context.Context, variants []string) (*reply, error) {
	sections := make([]string, 0, len(variants))
	for _, v := range variants {
		info, err := r.games.ContestInfo(ctx, v)
		if err != nil {
			return nil, err
		}

		status := "🔴 not running"
		if info.Active {
			status = "🟢 running"
		}

		sections = append(sections, strings.Join([]string{
			fmt.Sprintf("🎮 %s", strings.ToUpper(v)),
			fmt.Sprintf("🎯 Word contest, %s", status),
			fmt.Sprintf("/%ssay <word>: guess the word", v),
			fmt.Sprintf("/%swordinfo: hint about the word", v),
			"🎲 Lottery",
			fmt.Sprintf("/%sroll 9999: get a number", v),
			fmt.Sprintf("/%smynumber: your number", v),
			fmt.Sprintf("Attempts are allowed every %s. Numbers are unique, from 1 to 9999.",
				domain.FormatRemaining(info.Interval)),
		}, "\n"))
	}

	return &reply{Text: strings.Join(sections, "\n\n")}, nil
}

func (r *Router) adminGamesInfoFor(ctx context.Context, ev Event, variants []string) (*reply, error) {
	if !xcontext.Configs(ctx).Roles.IsAdmin(ev.From.ID) {
		return nil, errorx.New(errorx.PermissionDenied, "Access denied")
	}

	sections := make([]string, 0, len(variants))
	for _, v := range variants {
		info, err := r.games.ContestInfo(ctx, v)
		if err != nil {
			return nil, err
		}

		tickets, err := r.games.LotteryStatus(ctx, ev.From.ID, v)
		if err != nil {
			return nil, err
		}

		sections = append(sections, strings.Join([]string{
			fmt.Sprintf("🛠 %s: contest active %t, %d words, %d winners, %d lottery participants",
				strings.ToUpper(v), info.Active, len(info.Words), len(info.Winners), len(tickets)),
			fmt.Sprintf("/%swordadd <word>, /%swordedit <word> <description>, /%swordclear <word>", v, v, v),
			fmt.Sprintf("/%swordon, /%swordoff, /%sanstimeset <minutes>, /%swordinfoedit <text>", v, v, v, v),
			fmt.Sprintf("/%sroll <winners>, /%srollstatus, /%srollreset", v, v, v),
		}, "\n"))
	}

	return &reply{Text: strings.Join(sections, "\n\n")}, nil
}

// contestInfoText shows the word list to admins only.
func contestInfoText(
	ctx context.Context, ev Event, active bool, description string, words map[string]string, winners []string,
) string {
	lines := []string{}
	if description != "" {
		lines = append(lines, description)
	}

	if active {
		lines = append(lines, "🟢 The contest is running")
	} else {
		lines = append(lines, "🔴 The contest is not running")
	}

	if len(winners) > 0 {
		lines = append(lines, "Winners: "+strings.Join(winners, ", "))
	}

	if xcontext.Configs(ctx).Roles.IsAdmin(ev.From.ID) && len(words) > 0 {
		keys := maps.Keys(words)
		slices.Sort(keys)
		lines = append(lines, "Words: "+strings.Join(keys, ", "))
	}

	return strings.Join(lines, "\n")
}
