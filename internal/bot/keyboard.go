package bot

import (
	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/domain"
	"github.com/trixlive/backend/internal/domain/draft"
	"github.com/trixlive/backend/internal/entity"
)

const (
	menuMain    = "menu:main"
	menuPublish = "menu:publish"
	menuProfile = "menu:profile"
	menuTop     = "menu:top"
)

// Draft actions, sent as "<prefix>:<action>" where the prefix is pub for
// plain posts and piar for listings.
const (
	actionTopic   = "topic"
	actionDone    = "done"
	actionSkip    = "skip"
	actionBack    = "back"
	actionCancel  = "cancel"
	actionConfirm = "confirm"
	actionEdit    = "edit"
	actionAnon    = "anon"
)

func mainMenu() client.Keyboard {
	return client.Keyboard{
		{{Text: "📝 Publish", Data: menuPublish}},
		{{Text: "👤 Profile", Data: menuProfile}, {Text: "🏆 Top", Data: menuTop}},
	}
}

func topicsMenu() client.Keyboard {
	kb := client.Keyboard{}
	row := []client.Button{}
	for _, topic := range domain.Topics() {
		prefix := draftPrefix(topic.Kind)
		row = append(row, client.Button{Text: topic.Title, Data: prefix + ":" + actionTopic + ":" + topic.Key})
		if len(row) == 2 {
			kb = append(kb, row)
			row = []client.Button{}
		}
	}

	if len(row) > 0 {
		kb = append(kb, row)
	}

	return append(kb, []client.Button{{Text: "⬅️ Menu", Data: menuMain}})
}

func draftPrefix(kind entity.PostKind) string {
	if kind == entity.KindPiar {
		return "piar"
	}

	return "pub"
}

// stepKeyboard returns the buttons shown with a prompt.
func stepKeyboard(kind entity.PostKind, prompt draft.Prompt, anonymous bool) client.Keyboard {
	prefix := draftPrefix(kind) + ":"
	nav := []client.Button{
		{Text: "⬅️ Back", Data: prefix + actionBack},
		{Text: "✖️ Cancel", Data: prefix + actionCancel},
	}

	switch prompt.Step.(type) {
	case draft.MediaStep:
		return client.Keyboard{{{Text: "➡️ Continue", Data: prefix + actionDone}}, nav}
	case draft.PiarPhoneStep, draft.PiarInstagramStep, draft.PiarTelegramStep:
		return client.Keyboard{{{Text: "⏭ Skip", Data: prefix + actionSkip}}, nav}
	case draft.PreviewStep:
		anon := client.Button{Text: "🙈 Post anonymously", Data: prefix + actionAnon + ":on"}
		if anonymous {
			anon = client.Button{Text: "🙉 Show my name", Data: prefix + actionAnon + ":off"}
		}

		return client.Keyboard{
			{{Text: "✅ Send to moderation", Data: prefix + actionConfirm}},
			{{Text: "✏️ Start over", Data: prefix + actionEdit}, anon},
			nav,
		}
	case draft.PostTextStep, draft.PiarNameStep, draft.PiarProfessionStep, draft.PiarDistrictsStep,
		draft.PiarPriceStep, draft.PiarDescriptionStep:
		return client.Keyboard{nav}
	default:
		return client.Keyboard{nav}
	}
}
