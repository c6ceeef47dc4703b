package draft

import "fmt"

// Step is the position of a session in its form. The set of steps is closed:
// every switch over a Step handles all the types below.
type Step interface {
	isStep()
}

type (
	PostTextStep        struct{}
	MediaStep           struct{}
	PiarNameStep        struct{}
	PiarProfessionStep  struct{}
	PiarDistrictsStep   struct{}
	PiarPhoneStep       struct{}
	PiarInstagramStep   struct{}
	PiarTelegramStep    struct{}
	PiarPriceStep       struct{}
	PiarDescriptionStep struct{}
	PreviewStep         struct{}
)

func (PostTextStep) isStep()        {}
func (MediaStep) isStep()           {}
func (PiarNameStep) isStep()        {}
func (PiarProfessionStep) isStep()  {}
func (PiarDistrictsStep) isStep()   {}
func (PiarPhoneStep) isStep()       {}
func (PiarInstagramStep) isStep()   {}
func (PiarTelegramStep) isStep()    {}
func (PiarPriceStep) isStep()       {}
func (PiarDescriptionStep) isStep() {}
func (PreviewStep) isStep()         {}

var (
	postSequence = []Step{PostTextStep{}, MediaStep{}}
	piarSequence = []Step{
		PiarNameStep{},
		PiarProfessionStep{},
		PiarDistrictsStep{},
		PiarPhoneStep{},
		PiarInstagramStep{},
		PiarTelegramStep{},
		PiarPriceStep{},
		PiarDescriptionStep{},
		MediaStep{},
	}
)

// Skip is the input that leaves an optional step empty.
const Skip = "-"

// Prompt is what the user is asked at a step. It only depends on the step
// and the draft, so going back and forth reproduces the same prompts.
type Prompt struct {
	Step   Step
	Number int
	Total  int
	Text   string
}

func promptText(step Step, d *Draft, maxMedia int) string {
	switch step.(type) {
	case PostTextStep:
		return "Send the text of your post. You can attach a photo or a video with a caption."
	case MediaStep:
		if len(d.Media) == 0 {
			return fmt.Sprintf("Send up to %d photos or videos, or send \"-\" to continue.", maxMedia)
		}
		return fmt.Sprintf("Media received (%d of %d). Send more or \"-\" to continue.", len(d.Media), maxMedia)
	case PiarNameStep:
		return "What is your name or nickname?"
	case PiarProfessionStep:
		return "Which services do you provide?"
	case PiarDistrictsStep:
		return "In which districts do you work? Up to 3, separated by commas."
	case PiarPhoneStep:
		return "Your phone number, or \"-\" to skip."
	case PiarInstagramStep:
		return "Your Instagram (link, @name or username), or \"-\" to skip."
	case PiarTelegramStep:
		return "Your Telegram (link, @name or username), or \"-\" to skip."
	case PiarPriceStep:
		return "Price of your services or a short price list."
	case PiarDescriptionStep:
		return "Describe your services."
	case PreviewStep:
		return "Check the preview and send it to moderation."
	default:
		panic(fmt.Sprintf("unknown step %T", step))
	}
}
