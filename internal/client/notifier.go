package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/trixlive/backend/internal/common"
	"github.com/trixlive/backend/internal/entity"
)

// ErrRecipientUnreachable is returned when the user blocked the bot or the
// chat no longer exists.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

type Button struct {
	Text string
	Data string
	URL  string
}

type Keyboard [][]Button

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) (MessageRef, error)
	SendMedia(ctx context.Context, chatID int64, media []entity.Media, caption string) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, kb Keyboard) error
	Pin(ctx context.Context, ref MessageRef) error
	Delete(ctx context.Context, ref MessageRef) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

type telegramNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI) *telegramNotifier {
	return &telegramNotifier{bot: bot}
}

func (n *telegramNotifier) SendText(
	ctx context.Context, chatID int64, text string, kb Keyboard,
) (MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if markup := inlineMarkup(kb); markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := n.bot.Send(msg)
	if err != nil {
		return MessageRef{}, n.wrap("send_text", err)
	}

	return MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// SendMedia sends a single item as a plain media message and several items
// as an album. The caption is attached to the first item.
func (n *telegramNotifier) SendMedia(
	ctx context.Context, chatID int64, media []entity.Media, caption string,
) (MessageRef, error) {
	if len(media) == 0 {
		return n.SendText(ctx, chatID, caption, nil)
	}

	if len(media) == 1 {
		sent, err := n.bot.Send(singleMedia(chatID, media[0], caption))
		if err != nil {
			return MessageRef{}, n.wrap("send_media", err)
		}

		return MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
	}

	files := make([]any, 0, len(media))
	for i, m := range media {
		files = append(files, albumItem(m, caption, i == 0))
	}

	sent, err := n.bot.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, files))
	if err != nil {
		return MessageRef{}, n.wrap("send_media", err)
	}

	if len(sent) == 0 {
		return MessageRef{}, errors.New("empty media group response")
	}

	return MessageRef{ChatID: chatID, MessageID: sent[0].MessageID}, nil
}

func (n *telegramNotifier) EditText(ctx context.Context, ref MessageRef, text string, kb Keyboard) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ReplyMarkup = inlineMarkup(kb)
	if _, err := n.bot.Request(edit); err != nil {
		return n.wrap("edit_text", err)
	}

	return nil
}

func (n *telegramNotifier) Pin(ctx context.Context, ref MessageRef) error {
	pin := tgbotapi.PinChatMessageConfig{ChatID: ref.ChatID, MessageID: ref.MessageID}
	if _, err := n.bot.Request(pin); err != nil {
		return n.wrap("pin", err)
	}

	return nil
}

func (n *telegramNotifier) Delete(ctx context.Context, ref MessageRef) error {
	if _, err := n.bot.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return n.wrap("delete", err)
	}

	return nil
}

func (n *telegramNotifier) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := n.bot.Request(cb); err != nil {
		return n.wrap("answer_callback", err)
	}

	return nil
}

func (n *telegramNotifier) wrap(method string, err error) error {
	common.IncCounter(common.NotifierFailureTotal, method)
	return classifyError(err)
}

// classifyError maps "bot was blocked" and "chat not found" answers to
// ErrRecipientUnreachable.
func classifyError(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		if tgErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: %s", ErrRecipientUnreachable, tgErr.Message)
		}

		if tgErr.Code == http.StatusBadRequest && tgErr.Message == "Bad Request: chat not found" {
			return fmt.Errorf("%w: %s", ErrRecipientUnreachable, tgErr.Message)
		}
	}

	return err
}

func inlineMarkup(kb Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, buttons)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func singleMedia(chatID int64, m entity.Media, caption string) tgbotapi.Chattable {
	file := tgbotapi.FileID(m.FileID)
	switch m.Type {
	case entity.MediaVideo:
		v := tgbotapi.NewVideo(chatID, file)
		v.Caption = caption
		return v
	case entity.MediaDocument:
		d := tgbotapi.NewDocument(chatID, file)
		d.Caption = caption
		return d
	default:
		p := tgbotapi.NewPhoto(chatID, file)
		p.Caption = caption
		return p
	}
}

func albumItem(m entity.Media, caption string, first bool) any {
	file := tgbotapi.FileID(m.FileID)
	switch m.Type {
	case entity.MediaVideo:
		v := tgbotapi.NewInputMediaVideo(file)
		if first {
			v.Caption = caption
		}
		return v
	case entity.MediaDocument:
		d := tgbotapi.NewInputMediaDocument(file)
		if first {
			d.Caption = caption
		}
		return d
	default:
		p := tgbotapi.NewInputMediaPhoto(file)
		if first {
			p.Caption = caption
		}
		return p
	}
}
