package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/trixlive/backend/internal/domain"
	"github.com/trixlive/backend/internal/entity"
)

type EventKind string

const (
	EventText     EventKind = "text"
	EventMedia    EventKind = "media"
	EventCallback EventKind = "callback"
)

// Event is an inbound update reduced to what the router needs.
type Event struct {
	Kind      EventKind
	ChatID    int64
	Private   bool
	MessageID int
	From      domain.UserInfo

	// Text holds the message text or the media caption.
	Text  string
	Media *entity.Media

	CallbackID string
	Data       string
}

// FromUpdate converts a platform update. Updates the bot does not handle,
// such as edits, service messages or messages without a sender, are
// reported as false.
func FromUpdate(u tgbotapi.Update) (Event, bool) {
	if cb := u.CallbackQuery; cb != nil {
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
			return Event{}, false
		}

		return Event{
			Kind:       EventCallback,
			ChatID:     cb.Message.Chat.ID,
			Private:    cb.Message.Chat.IsPrivate(),
			MessageID:  cb.Message.MessageID,
			From:       userInfo(cb.From),
			CallbackID: cb.ID,
			Data:       cb.Data,
		}, true
	}

	msg := u.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.From.IsBot {
		return Event{}, false
	}

	ev := Event{
		ChatID:    msg.Chat.ID,
		Private:   msg.Chat.IsPrivate(),
		MessageID: msg.MessageID,
		From:      userInfo(msg.From),
	}

	switch {
	case len(msg.Photo) > 0:
		// The last size is the largest one.
		photo := msg.Photo[len(msg.Photo)-1]
		ev.Kind = EventMedia
		ev.Media = &entity.Media{Type: entity.MediaPhoto, FileID: photo.FileID}
		ev.Text = msg.Caption
	case msg.Video != nil:
		ev.Kind = EventMedia
		ev.Media = &entity.Media{Type: entity.MediaVideo, FileID: msg.Video.FileID}
		ev.Text = msg.Caption
	case msg.Document != nil:
		ev.Kind = EventMedia
		ev.Media = &entity.Media{Type: entity.MediaDocument, FileID: msg.Document.FileID}
		ev.Text = msg.Caption
	case msg.Text != "":
		ev.Kind = EventText
		ev.Text = msg.Text
	default:
		return Event{}, false
	}

	return ev, true
}

func userInfo(u *tgbotapi.User) domain.UserInfo {
	return domain.UserInfo{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Command splits "/name@bot args" into the lower-cased name and the raw
// arguments. It reports false for plain text.
func (e Event) Command() (string, string, bool) {
	if e.Kind != EventText || !strings.HasPrefix(e.Text, "/") {
		return "", "", false
	}

	head, args, _ := strings.Cut(strings.TrimSpace(e.Text[1:]), " ")
	name, _, _ := strings.Cut(head, "@")
	if name == "" {
		return "", "", false
	}

	return strings.ToLower(name), strings.TrimSpace(args), true
}
