package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/entity"
)

type SentMessage struct {
	Ref      client.MessageRef
	Text     string
	Media    []entity.Media
	Keyboard client.Keyboard
}

// MockNotifier records outbound calls. A Func field replaces the default
// behavior of the matching method.
type MockNotifier struct {
	SendTextFunc  func(ctx context.Context, chatID int64, text string, kb client.Keyboard) (client.MessageRef, error)
	SendMediaFunc func(ctx context.Context, chatID int64, media []entity.Media, caption string) (client.MessageRef, error)
	EditTextFunc  func(ctx context.Context, ref client.MessageRef, text string, kb client.Keyboard) error
	PinFunc       func(ctx context.Context, ref client.MessageRef) error

	mu       sync.Mutex
	nextID   int
	sent     []SentMessage
	edited   []SentMessage
	pinned   []client.MessageRef
	deleted  []client.MessageRef
	answered []string
}

func (m *MockNotifier) SendText(
	ctx context.Context, chatID int64, text string, kb client.Keyboard,
) (client.MessageRef, error) {
	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, chatID, text, kb)
	}

	return m.record(chatID, text, nil, kb), nil
}

func (m *MockNotifier) SendMedia(
	ctx context.Context, chatID int64, media []entity.Media, caption string,
) (client.MessageRef, error) {
	if m.SendMediaFunc != nil {
		return m.SendMediaFunc(ctx, chatID, media, caption)
	}

	return m.record(chatID, caption, media, nil), nil
}

func (m *MockNotifier) EditText(ctx context.Context, ref client.MessageRef, text string, kb client.Keyboard) error {
	if m.EditTextFunc != nil {
		return m.EditTextFunc(ctx, ref, text, kb)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, SentMessage{Ref: ref, Text: text, Keyboard: kb})
	return nil
}

func (m *MockNotifier) Pin(ctx context.Context, ref client.MessageRef) error {
	if m.PinFunc != nil {
		return m.PinFunc(ctx, ref)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned = append(m.pinned, ref)
	return nil
}

func (m *MockNotifier) Delete(ctx context.Context, ref client.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *MockNotifier) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, text)
	return nil
}

func (m *MockNotifier) record(chatID int64, text string, media []entity.Media, kb client.Keyboard) client.MessageRef {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	ref := client.MessageRef{ChatID: chatID, MessageID: m.nextID}
	m.sent = append(m.sent, SentMessage{Ref: ref, Text: text, Media: media, Keyboard: kb})
	return ref
}

// SentTo returns the messages delivered to chatID in order.
func (m *MockNotifier) SentTo(chatID int64) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []SentMessage{}
	for _, s := range m.sent {
		if s.Ref.ChatID == chatID {
			result = append(result, s)
		}
	}

	return result
}

func (m *MockNotifier) Edited() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage{}, m.edited...)
}

func (m *MockNotifier) Pinned() []client.MessageRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]client.MessageRef{}, m.pinned...)
}

func (m *MockNotifier) Answered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.answered...)
}

// FailingSendText simulates an unavailable chat platform.
func FailingSendText(context.Context, int64, string, client.Keyboard) (client.MessageRef, error) {
	return client.MessageRef{}, errors.New("chat platform is unavailable")
}
