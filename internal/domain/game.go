package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/common"
	"github.com/trixlive/backend/internal/domain/game"
	"github.com/trixlive/backend/pkg/errorx"
	"github.com/trixlive/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
)

// JoinArgument is the only argument that enters a user into the lottery.
const JoinArgument = "9999"

type RollResult struct {
	// Set when the user joined.
	Joined  bool
	Existed bool
	Number  int

	// Set when an admin ran the draw.
	Winners []game.Ticket
	Target  int
}

type GameDomain interface {
	Roll(ctx context.Context, variant string, from UserInfo, arg string) (*RollResult, error)
	ResetLottery(ctx context.Context, adminID int64, variant string) (int, error)
	MyNumber(ctx context.Context, variant string, userID int64) (int, error)
	LotteryStatus(ctx context.Context, moderatorID int64, variant string) ([]game.Ticket, error)

	AddWord(ctx context.Context, adminID int64, variant, word string) (string, error)
	EditWord(ctx context.Context, adminID int64, variant, word, description string) error
	RemoveWord(ctx context.Context, adminID int64, variant, word string) error
	SetInterval(ctx context.Context, adminID int64, variant string, minutes string) (time.Duration, error)
	SetDescription(ctx context.Context, adminID int64, variant, text string) error
	StartContest(ctx context.Context, adminID int64, variant string) (string, error)
	StopContest(ctx context.Context, adminID int64, variant string) (game.StopResult, error)
	ContestInfo(ctx context.Context, variant string) (game.ContestInfo, error)
	Guess(ctx context.Context, variant string, from UserInfo, guess string) (game.AttemptResult, error)
}

type gameDomain struct {
	lottery  *game.LotteryRegistry
	contest  *game.WordContest
	gate     *CooldownGate
	notifier client.Notifier
}

func NewGameDomain(
	lottery *game.LotteryRegistry,
	contest *game.WordContest,
	gate *CooldownGate,
	notifier client.Notifier,
) *gameDomain {
	return &gameDomain{
		lottery:  lottery,
		contest:  contest,
		gate:     gate,
		notifier: notifier,
	}
}

// ResolveVariant splits a command such as "/play3xiasay" into the variant
// and the action. The longest matching variant wins.
func ResolveVariant(variants []string, command string) (string, string, bool) {
	command = strings.TrimPrefix(command, "/")
	best := ""
	for _, v := range variants {
		if strings.HasPrefix(command, v) && len(v) > len(best) {
			best = v
		}
	}

	if best == "" {
		return "", "", false
	}

	return best, strings.TrimPrefix(command, best), true
}

func (d *gameDomain) checkVariant(ctx context.Context, variant string) error {
	if !slices.Contains(xcontext.Configs(ctx).Game.Variants, variant) {
		return errorx.New(errorx.NotFound, "Unknown game %s", variant)
	}

	return nil
}

func (d *gameDomain) checkAdmin(ctx context.Context, adminID int64, variant string) error {
	if !xcontext.Configs(ctx).Roles.IsAdmin(adminID) {
		return errorx.New(errorx.PermissionDenied, "You don't have permission to use this command")
	}

	return d.checkVariant(ctx, variant)
}

// Roll joins the lottery with the literal 9999 argument. Any other argument
// is a draw of that many winners and needs admin rights.
func (d *gameDomain) Roll(ctx context.Context, variant string, from UserInfo, arg string) (*RollResult, error) {
	if err := d.checkVariant(ctx, variant); err != nil {
		return nil, err
	}

	arg = strings.TrimSpace(arg)
	if arg == JoinArgument {
		return d.join(ctx, variant, from)
	}

	cfg := xcontext.Configs(ctx)
	if !cfg.Roles.IsAdmin(from.ID) {
		return nil, errorx.New(errorx.BadRequest, "To get a number send /%sroll %s", variant, JoinArgument)
	}

	winners := 1
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "The number of winners must be a number")
		}

		winners = n
	}

	maxWinners := cfg.Game.MaxWinners
	if maxWinners < 1 {
		maxWinners = 1
	}
	winners = max(1, min(winners, maxWinners))

	tickets, target, err := d.lottery.Draw(variant, winners)
	if err != nil {
		return nil, err
	}

	common.IncCounter(common.GameEventTotal, "lottery", "draw")
	names := []string{}
	for _, t := range tickets {
		names = append(names, fmt.Sprintf("%s (%d)", t.Username, t.Number))
	}
	d.notifyModerators(ctx, fmt.Sprintf("🎲 %s draw, target %d\nWinners: %s",
		variant, target, strings.Join(names, ", ")))

	return &RollResult{Winners: tickets, Target: target}, nil
}

func (d *gameDomain) join(ctx context.Context, variant string, from UserInfo) (*RollResult, error) {
	if err := d.gate.CheckRestricted(ctx, from.ID); err != nil {
		return nil, err
	}

	number, existed, err := d.lottery.Join(variant, from.ID, displayName(from))
	if err != nil {
		return nil, err
	}

	if !existed {
		common.IncCounter(common.GameEventTotal, "lottery", "join")
		d.notifyModerators(ctx, fmt.Sprintf("🎲 %s: %s got number %d", variant, displayName(from), number))
	}

	return &RollResult{Joined: true, Existed: existed, Number: number}, nil
}

func (d *gameDomain) ResetLottery(ctx context.Context, adminID int64, variant string) (int, error) {
	if err := d.checkAdmin(ctx, adminID, variant); err != nil {
		return 0, err
	}

	return d.lottery.Reset(variant), nil
}

func (d *gameDomain) MyNumber(ctx context.Context, variant string, userID int64) (int, error) {
	if err := d.checkVariant(ctx, variant); err != nil {
		return 0, err
	}

	ticket, ok := d.lottery.Ticket(variant, userID)
	if !ok {
		return 0, errorx.New(errorx.NotFound,
			"You have no number yet, send /%sroll %s", variant, JoinArgument)
	}

	return ticket.Number, nil
}

func (d *gameDomain) LotteryStatus(ctx context.Context, moderatorID int64, variant string) ([]game.Ticket, error) {
	if !xcontext.Configs(ctx).Roles.IsModerator(moderatorID) {
		return nil, errorx.New(errorx.PermissionDenied, "You don't have permission to use this command")
	}

	if err := d.checkVariant(ctx, variant); err != nil {
		return nil, err
	}

	return d.lottery.Tickets(variant), nil
}

func (d *gameDomain) AddWord(ctx context.Context, adminID int64, variant, word string) (string, error) {
	if err := d.checkAdmin(ctx, adminID, variant); err != nil {
		return "", err
	}

	return d.contest.AddWord(variant, word)
}

func (d *gameDomain) EditWord(ctx context.Context, adminID int64, variant, word, description string) error {
	if err := d.checkAdmin(ctx, adminID, variant); err != nil {
		return err
	}

	return d.contest.EditWord(variant, word, description)
}

func (d *gameDomain) RemoveWord(ctx context.Context, adminID int64, variant, word string) error {
	if err := d.checkAdmin(ctx, adminID, variant); err != nil {
		return err
	}

	return d.contest.RemoveWord(variant, word)
}

func (d *gameDomain) SetInterval(
	ctx context.Context, adminID int64, variant string, minutes string,
) (time.Duration, error) {
	if err := d.checkAdmin(ctx, adminID, variant); err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(minutes))
	if err != nil || n <= 0 {
		return 0, errorx.New(errorx.BadRequest, "The interval must be a positive number of minutes")
	}

	interval := time.Duration(n) * time.Minute
	if err := d.contest.SetInterval(variant, interval); err != nil {
		return 0, err
	}

	return interval, nil
}

func (d *gameDomain) SetDescription(ctx context.Context, adminID int64, variant, text string) error {
	if err := d.checkAdmin(ctx, adminID, variant); err != nil {
		return err
	}

	d.contest.SetDescription(variant, text)
	return nil
}

func (d *gameDomain) StartContest(ctx context.Context, adminID int64, variant string) (string, error) {
	if err := d.checkAdmin(ctx, adminID, variant); err != nil {
		return "", err
	}

	word, err := d.contest.Start(variant)
	if err != nil {
		return "", err
	}

	common.IncCounter(common.GameEventTotal, "word", "start")
	return word, nil
}

func (d *gameDomain) StopContest(ctx context.Context, adminID int64, variant string) (game.StopResult, error) {
	if err := d.checkAdmin(ctx, adminID, variant); err != nil {
		return game.StopResult{}, err
	}

	return d.contest.Stop(variant), nil
}

func (d *gameDomain) ContestInfo(ctx context.Context, variant string) (game.ContestInfo, error) {
	if err := d.checkVariant(ctx, variant); err != nil {
		return game.ContestInfo{}, err
	}

	return d.contest.Info(variant), nil
}

// Guess checks bans and mutes before the attempt reaches the contest.
func (d *gameDomain) Guess(
	ctx context.Context, variant string, from UserInfo, guess string,
) (game.AttemptResult, error) {
	if err := d.checkVariant(ctx, variant); err != nil {
		return game.AttemptResult{}, err
	}

	if strings.TrimSpace(guess) == "" {
		return game.AttemptResult{}, errorx.New(errorx.BadRequest, "Usage: /%ssay word", variant)
	}

	if err := d.gate.CheckRestricted(ctx, from.ID); err != nil {
		return game.AttemptResult{}, err
	}

	result, err := d.contest.Attempt(variant, from.ID, displayName(from), guess)
	if err != nil {
		return result, err
	}

	common.IncCounter(common.GameEventTotal, "word", "attempt")
	if result.Won {
		common.IncCounter(common.GameEventTotal, "word", "win")
		d.notifyModerators(ctx, fmt.Sprintf("🏆 %s: %s guessed the word %q",
			variant, displayName(from), result.Word))
	} else {
		d.notifyModerators(ctx, fmt.Sprintf("🎯 %s: %s tried %q", variant, displayName(from), guess))
	}

	return result, nil
}

func (d *gameDomain) notifyModerators(ctx context.Context, text string) {
	chatID := xcontext.Configs(ctx).Telegram.ModerationChatID
	if _, err := d.notifier.SendText(ctx, chatID, text, nil); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot notify moderators about a game event: %v", err)
	}
}

func displayName(from UserInfo) string {
	if from.Username != "" {
		return "@" + from.Username
	}

	if from.FirstName != "" {
		return from.FirstName
	}

	return strconv.FormatInt(from.ID, 10)
}
