package draft

import (
	"fmt"
	"strings"
	"sync"

	"github.com/trixlive/backend/config"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/errorx"
)

// Draft is the content collected so far. For listings Text holds the
// description.
type Draft struct {
	Kind        entity.PostKind
	Category    string
	Subcategory string
	Hashtags    []string
	Destination entity.Destination
	Anonymous   bool
	Text        string
	Media       []entity.Media
	Piar        entity.Piar
}

func (d Draft) clone() Draft {
	d.Hashtags = append([]string(nil), d.Hashtags...)
	d.Media = append([]entity.Media(nil), d.Media...)
	d.Piar.Districts = append(entity.Array[string](nil), d.Piar.Districts...)
	return d
}

// Input is one inbound message. Media is nil for plain text.
type Input struct {
	Text  string
	Media *entity.Media
}

// Session drives one user through a form. It is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	limits config.DraftConfigs
	steps  []Step
	index  int
	draft  Draft

	// mediaBase is the number of media items the draft held when the
	// media step was entered. Going back to that step keeps them.
	mediaBase int
}

// Topic fixes where a post goes. It is chosen before the form starts and
// survives Back and Edit.
type Topic struct {
	Category    string
	Subcategory string
	Hashtags    []string
	Destination entity.Destination
	Anonymous   bool
}

func NewPostSession(limits config.DraftConfigs, topic Topic) *Session {
	return &Session{
		limits: limits,
		steps:  postSequence,
		draft:  newDraft(entity.KindPost, topic),
	}
}

func NewPiarSession(limits config.DraftConfigs, topic Topic) *Session {
	return &Session{
		limits: limits,
		steps:  piarSequence,
		draft:  newDraft(entity.KindPiar, topic),
	}
}

func newDraft(kind entity.PostKind, topic Topic) Draft {
	if topic.Destination == "" {
		topic.Destination = entity.DestinationChannel
	}

	return Draft{
		Kind:        kind,
		Category:    topic.Category,
		Subcategory: topic.Subcategory,
		Hashtags:    append([]string(nil), topic.Hashtags...),
		Destination: topic.Destination,
		Anonymous:   topic.Anonymous,
	}
}

func (s *Session) Kind() entity.PostKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Kind
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

func (s *Session) Prompt() Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt()
}

func (s *Session) SetAnonymous(anonymous bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Anonymous = anonymous
}

// Submit validates the input against the current step. On failure the
// session does not move and the error carries the reason.
func (s *Session) Submit(in Input) (Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := strings.TrimSpace(in.Text)
	step := s.step()

	if in.Media != nil && !acceptsMedia(step) {
		return Prompt{}, errorx.New(errorx.BadRequest, "Send a text message at this step")
	}

	switch step.(type) {
	case PostTextStep:
		value, err := validateRequired(text, "Post text", s.limits.MaxTextLength)
		if err != nil {
			return Prompt{}, err
		}

		s.draft.Text = value
		if in.Media != nil {
			if err := s.addMedia(*in.Media); err != nil {
				return Prompt{}, err
			}
		}

	case MediaStep:
		if in.Media == nil {
			if text != Skip {
				return Prompt{}, errorx.New(errorx.BadRequest,
					"Send a photo or a video, or \"%s\" to continue", Skip)
			}

			s.index++
			return s.prompt(), nil
		}

		if err := s.addMedia(*in.Media); err != nil {
			return Prompt{}, err
		}

		// Media is repeatable: stay on the step.
		return s.prompt(), nil

	case PiarNameStep:
		value, err := validateRequired(text, "Name", s.limits.MaxFieldLength)
		if err != nil {
			return Prompt{}, err
		}
		s.draft.Piar.Name = value

	case PiarProfessionStep:
		value, err := validateRequired(text, "Profession", s.limits.MaxFieldLength)
		if err != nil {
			return Prompt{}, err
		}
		s.draft.Piar.Profession = value

	case PiarDistrictsStep:
		districts, err := parseDistricts(text, s.limits)
		if err != nil {
			return Prompt{}, err
		}
		s.draft.Piar.Districts = districts

	case PiarPhoneStep:
		if text != Skip {
			phone, err := validatePhone(text, s.limits)
			if err != nil {
				return Prompt{}, err
			}
			s.draft.Piar.Phone = phone
		}

	case PiarInstagramStep:
		if text != Skip {
			value, err := validateRequired(NormalizeInstagram(text), "Instagram", s.limits.MaxFieldLength)
			if err != nil {
				return Prompt{}, err
			}
			s.draft.Piar.Instagram = value
		}

	case PiarTelegramStep:
		if text != Skip {
			value, err := validateRequired(NormalizeTelegram(text), "Telegram", s.limits.MaxFieldLength)
			if err != nil {
				return Prompt{}, err
			}
			s.draft.Piar.Telegram = value
		}

	case PiarPriceStep:
		value, err := validateRequired(text, "Price", s.limits.MaxFieldLength)
		if err != nil {
			return Prompt{}, err
		}
		s.draft.Piar.Price = value

	case PiarDescriptionStep:
		value, err := validateRequired(text, "Description", s.limits.MaxDescription)
		if err != nil {
			return Prompt{}, err
		}
		s.draft.Text = value

	case PreviewStep:
		return Prompt{}, errorx.New(errorx.BadRequest, "Use the buttons under the preview")

	default:
		panic(fmt.Sprintf("unknown step %T", step))
	}

	s.advance()
	return s.prompt(), nil
}

func (s *Session) advance() {
	s.index++
	if _, ok := s.step().(MediaStep); ok {
		s.mediaBase = len(s.draft.Media)
	}
}

// FinishMedia is the "no more media" action.
func (s *Session) FinishMedia() (Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.step().(MediaStep); !ok {
		return Prompt{}, errorx.New(errorx.BadRequest, "Nothing to finish at this step")
	}

	s.index++
	return s.prompt(), nil
}

// Back moves one step backward and clears what the user entered there. At
// the first step the whole draft is cleared and reset is true.
func (s *Session) Back() (prompt Prompt, reset bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == 0 {
		s.restart()
		return s.prompt(), true
	}

	s.clearField(s.step())
	s.index--
	s.clearField(s.step())
	return s.prompt(), false
}

// Edit restarts the form from the first step. It is only allowed from the
// preview.
func (s *Session) Edit() (Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.step().(PreviewStep); !ok {
		return Prompt{}, errorx.New(errorx.BadRequest, "The draft is not finished yet")
	}

	s.restart()
	return s.prompt(), nil
}

// Preview returns a copy of the finished draft.
func (s *Session) Preview() (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.step().(PreviewStep); !ok {
		return Draft{}, errorx.New(errorx.BadRequest, "The draft is not finished yet")
	}

	return s.draft.clone(), nil
}

func (s *Session) step() Step {
	if s.index >= len(s.steps) {
		return PreviewStep{}
	}

	return s.steps[s.index]
}

func (s *Session) prompt() Prompt {
	step := s.step()
	return Prompt{
		Step:   step,
		Number: min(s.index+1, len(s.steps)),
		Total:  len(s.steps),
		Text:   promptText(step, &s.draft, s.maxMedia()),
	}
}

func (s *Session) maxMedia() int {
	if s.draft.Kind == entity.KindPiar {
		return s.limits.MaxPiarMedia
	}

	return s.limits.MaxPostMedia
}

func (s *Session) addMedia(m entity.Media) error {
	if s.draft.Kind == entity.KindPiar && m.Type == entity.MediaDocument {
		return errorx.New(errorx.BadRequest, "Only photos and videos are allowed")
	}

	if len(s.draft.Media) >= s.maxMedia() {
		return errorx.New(errorx.BadRequest, "Too many media files, the limit is %d", s.maxMedia())
	}

	s.draft.Media = append(s.draft.Media, m)
	return nil
}

func (s *Session) restart() {
	s.index = 0
	s.mediaBase = 0
	s.draft = newDraft(s.draft.Kind, Topic{
		Category:    s.draft.Category,
		Subcategory: s.draft.Subcategory,
		Hashtags:    s.draft.Hashtags,
		Destination: s.draft.Destination,
		Anonymous:   s.draft.Anonymous,
	})
}

func (s *Session) clearField(step Step) {
	switch step.(type) {
	case PostTextStep:
		s.draft.Text = ""
		s.draft.Media = nil
	case MediaStep:
		s.draft.Media = s.draft.Media[:min(s.mediaBase, len(s.draft.Media))]
	case PiarNameStep:
		s.draft.Piar.Name = ""
	case PiarProfessionStep:
		s.draft.Piar.Profession = ""
	case PiarDistrictsStep:
		s.draft.Piar.Districts = nil
	case PiarPhoneStep:
		s.draft.Piar.Phone = ""
	case PiarInstagramStep:
		s.draft.Piar.Instagram = ""
	case PiarTelegramStep:
		s.draft.Piar.Telegram = ""
	case PiarPriceStep:
		s.draft.Piar.Price = ""
	case PiarDescriptionStep:
		s.draft.Text = ""
	case PreviewStep:
	default:
		panic(fmt.Sprintf("unknown step %T", step))
	}
}

func acceptsMedia(step Step) bool {
	switch step.(type) {
	case PostTextStep, MediaStep:
		return true
	default:
		return false
	}
}
