package draft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trixlive/backend/config"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/errorx"
)

var sellTopic = Topic{
	Category:    "announcements",
	Subcategory: "sell",
	Hashtags:    []string{"#Sell", "#BudapestSell"},
}

func limits() config.DraftConfigs {
	return config.Default().Draft
}

func photo(id string) *entity.Media {
	return &entity.Media{Type: entity.MediaPhoto, FileID: id}
}

func Test_Session_PostFlow(t *testing.T) {
	s := NewPostSession(limits(), sellTopic)
	require.IsType(t, PostTextStep{}, s.Step())

	p, err := s.Submit(Input{Text: "  Selling a bike  "})
	require.NoError(t, err)
	require.IsType(t, MediaStep{}, p.Step)
	require.Equal(t, 2, p.Number)
	require.Equal(t, 2, p.Total)

	p, err = s.Submit(Input{Media: photo("f1")})
	require.NoError(t, err)
	require.IsType(t, MediaStep{}, p.Step)

	p, err = s.FinishMedia()
	require.NoError(t, err)
	require.IsType(t, PreviewStep{}, p.Step)

	d, err := s.Preview()
	require.NoError(t, err)
	require.Equal(t, "Selling a bike", d.Text)
	require.Equal(t, entity.KindPost, d.Kind)
	require.Equal(t, entity.DestinationChannel, d.Destination)
	require.Equal(t, []entity.Media{*photo("f1")}, d.Media)
	require.Equal(t, sellTopic.Hashtags, d.Hashtags)
}

func Test_Session_CaptionWithMedia(t *testing.T) {
	s := NewPostSession(limits(), sellTopic)

	p, err := s.Submit(Input{Text: "Bike", Media: photo("f1")})
	require.NoError(t, err)
	require.IsType(t, MediaStep{}, p.Step)

	p, err = s.Submit(Input{Text: Skip})
	require.NoError(t, err)
	require.IsType(t, PreviewStep{}, p.Step)

	d, err := s.Preview()
	require.NoError(t, err)
	require.Equal(t, "Bike", d.Text)
	require.Len(t, d.Media, 1)
}

func Test_Session_BackKeepsCaptionMedia(t *testing.T) {
	s := NewPostSession(limits(), sellTopic)

	media, err := s.Submit(Input{Text: "Bike", Media: photo("f1")})
	require.NoError(t, err)
	require.Contains(t, media.Text, "Media received (1 of")

	_, err = s.Submit(Input{Text: Skip})
	require.NoError(t, err)

	// Media added at the media step is dropped, the caption photo stays.
	p, reset := s.Back()
	require.False(t, reset)
	require.Equal(t, media, p)

	_, err = s.Submit(Input{Media: photo("f2")})
	require.NoError(t, err)
	_, err = s.Submit(Input{Text: Skip})
	require.NoError(t, err)

	p, _ = s.Back()
	require.Equal(t, media, p)

	p, err = s.Submit(Input{Text: Skip})
	require.NoError(t, err)
	require.IsType(t, PreviewStep{}, p.Step)

	d, err := s.Preview()
	require.NoError(t, err)
	require.Equal(t, "Bike", d.Text)
	require.Equal(t, []entity.Media{*photo("f1")}, d.Media)
}

func Test_Session_Validation(t *testing.T) {
	s := NewPostSession(limits(), sellTopic)

	_, err := s.Submit(Input{Text: "   "})
	require.True(t, errorx.Is(err, errorx.BadRequest))
	require.IsType(t, PostTextStep{}, s.Step())

	_, err = s.Submit(Input{Text: strings.Repeat("a", limits().MaxTextLength+1)})
	require.True(t, errorx.Is(err, errorx.BadRequest))
	require.IsType(t, PostTextStep{}, s.Step())

	_, err = s.Submit(Input{Text: "ok"})
	require.NoError(t, err)

	_, err = s.Submit(Input{Text: "more text"})
	require.True(t, errorx.Is(err, errorx.BadRequest))
	require.IsType(t, MediaStep{}, s.Step())

	_, err = s.Preview()
	require.True(t, errorx.Is(err, errorx.BadRequest))
}

func Test_Session_MaxMedia(t *testing.T) {
	l := limits()
	l.MaxPostMedia = 2
	s := NewPostSession(l, sellTopic)

	_, err := s.Submit(Input{Text: "text"})
	require.NoError(t, err)

	_, err = s.Submit(Input{Media: photo("1")})
	require.NoError(t, err)
	_, err = s.Submit(Input{Media: photo("2")})
	require.NoError(t, err)
	_, err = s.Submit(Input{Media: photo("3")})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = s.FinishMedia()
	require.NoError(t, err)
	d, err := s.Preview()
	require.NoError(t, err)
	require.Len(t, d.Media, 2)
}

func Test_Session_PiarFlow(t *testing.T) {
	s := NewPiarSession(limits(), Topic{Category: "services"})

	inputs := []string{
		"Anna",
		"Manicure",
		"District V, , District VI, District VII, District VIII",
		"+36 (30) 123-4567",
		"@anna.nails",
		"anna_nails",
		"from 20 EUR",
		"Classic and gel manicure",
	}
	for _, in := range inputs {
		_, err := s.Submit(Input{Text: in})
		require.NoError(t, err, in)
	}
	require.IsType(t, MediaStep{}, s.Step())

	_, err := s.Submit(Input{Media: &entity.Media{Type: entity.MediaDocument, FileID: "doc"}})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = s.Submit(Input{Media: &entity.Media{Type: entity.MediaVideo, FileID: "v"}})
	require.NoError(t, err)

	_, err = s.FinishMedia()
	require.NoError(t, err)

	d, err := s.Preview()
	require.NoError(t, err)
	require.Equal(t, entity.KindPiar, d.Kind)
	require.Equal(t, "Anna", d.Piar.Name)
	require.Equal(t, []string{"District V", "District VI", "District VII"}, []string(d.Piar.Districts))
	require.Equal(t, "anna.nails", d.Piar.Instagram)
	require.Equal(t, "@anna_nails", d.Piar.Telegram)
	require.Equal(t, "Classic and gel manicure", d.Text)
}

func Test_Session_PiarSkipAndInvalidPhone(t *testing.T) {
	s := NewPiarSession(limits(), Topic{Category: "services"})

	for _, in := range []string{"Anna", "Manicure", "V"} {
		_, err := s.Submit(Input{Text: in})
		require.NoError(t, err)
	}

	_, err := s.Submit(Input{Text: "12ab"})
	require.True(t, errorx.Is(err, errorx.BadRequest))
	require.IsType(t, PiarPhoneStep{}, s.Step())

	for _, in := range []string{Skip, Skip, Skip} {
		_, err := s.Submit(Input{Text: in})
		require.NoError(t, err)
	}
	require.IsType(t, PiarPriceStep{}, s.Step())

	_, err = s.Submit(Input{Media: photo("p")})
	require.True(t, errorx.Is(err, errorx.BadRequest))
}

func Test_Session_BackForwardReproducesPrompts(t *testing.T) {
	s := NewPiarSession(limits(), Topic{Category: "services"})
	inputs := []string{"Anna", "Manicure", "V", Skip, "insta", Skip, "20", "Nails"}

	var forward []Prompt
	forward = append(forward, s.Prompt())
	for _, in := range inputs {
		p, err := s.Submit(Input{Text: in})
		require.NoError(t, err)
		forward = append(forward, p)
	}

	// Walk all the way back.
	for i := len(inputs) - 1; i >= 0; i-- {
		p, reset := s.Back()
		require.False(t, reset)
		require.Equal(t, forward[i], p)
	}

	// Forward again with the same inputs.
	for i, in := range inputs {
		p, err := s.Submit(Input{Text: in})
		require.NoError(t, err)
		require.Equal(t, forward[i+1], p)
	}

	_, err := s.Submit(Input{Media: photo("1")})
	require.NoError(t, err)
	_, err = s.FinishMedia()
	require.NoError(t, err)

	// Back from preview returns to media and clears it.
	p, reset := s.Back()
	require.False(t, reset)
	require.IsType(t, MediaStep{}, p.Step)
	_, err = s.Submit(Input{Media: photo("1")})
	require.NoError(t, err)
	_, err = s.FinishMedia()
	require.NoError(t, err)

	d, err := s.Preview()
	require.NoError(t, err)
	require.Len(t, d.Media, 1)
	require.Equal(t, []string{"V"}, []string(d.Piar.Districts))
}

func Test_Session_BackAtFirstStepResets(t *testing.T) {
	s := NewPostSession(limits(), sellTopic)

	_, err := s.Submit(Input{Text: "text", Media: photo("1")})
	require.NoError(t, err)

	p, reset := s.Back()
	require.False(t, reset)
	require.IsType(t, PostTextStep{}, p.Step)

	p, reset = s.Back()
	require.True(t, reset)
	require.IsType(t, PostTextStep{}, p.Step)

	_, err = s.Submit(Input{Text: "again"})
	require.NoError(t, err)
	_, err = s.FinishMedia()
	require.NoError(t, err)

	d, err := s.Preview()
	require.NoError(t, err)
	require.Equal(t, "again", d.Text)
	require.Empty(t, d.Media)
}

func Test_Session_Edit(t *testing.T) {
	topic := Topic{Category: "actual", Destination: entity.DestinationPinnedChat}
	s := NewPostSession(limits(), topic)

	_, err := s.Edit()
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = s.Submit(Input{Text: "first"})
	require.NoError(t, err)
	_, err = s.FinishMedia()
	require.NoError(t, err)

	p, err := s.Edit()
	require.NoError(t, err)
	require.IsType(t, PostTextStep{}, p.Step)

	_, err = s.Submit(Input{Text: "second"})
	require.NoError(t, err)
	_, err = s.FinishMedia()
	require.NoError(t, err)

	d, err := s.Preview()
	require.NoError(t, err)
	require.Equal(t, "second", d.Text)
	require.Equal(t, "actual", d.Category)
	require.Equal(t, entity.DestinationPinnedChat, d.Destination)

	_, err = s.Submit(Input{Text: "x"})
	require.True(t, errorx.Is(err, errorx.BadRequest))
}

func Test_Store(t *testing.T) {
	store := NewStore()
	s := NewPostSession(limits(), sellTopic)

	store.Put(1, s)
	got, ok := store.Get(1)
	require.True(t, ok)
	require.Same(t, s, got)
	require.Equal(t, 1, store.Len())

	_, ok = store.Get(2)
	require.False(t, ok)

	store.Delete(1)
	require.Equal(t, 0, store.Len())
}

func Test_NormalizeContacts(t *testing.T) {
	require.Equal(t, "name", NormalizeInstagram("@name"))
	require.Equal(t, "@name", NormalizeTelegram("name"))
	require.Equal(t, "@name", NormalizeTelegram("@name"))
	require.Equal(t, "https://t.me/name", NormalizeTelegram("https://t.me/name"))
}
