package domain

import (
	"fmt"
	"strings"

	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/domain/draft"
	"github.com/trixlive/backend/internal/entity"
	"github.com/trixlive/backend/pkg/enum"
)

// DraftPost builds the post a draft turns into. Missing hashtags are derived
// from the category.
func DraftPost(d draft.Draft) *entity.Post {
	post := &entity.Post{
		Kind:        d.Kind,
		Category:    d.Category,
		Subcategory: d.Subcategory,
		Text:        d.Text,
		Media:       d.Media,
		Hashtags:    d.Hashtags,
		Anonymous:   d.Anonymous,
		Destination: d.Destination,
		Piar:        d.Piar,
	}

	if len(post.Hashtags) == 0 {
		post.Hashtags = Hashtags(post.Category, post.Subcategory)
	}

	return post
}

// RenderPublication builds the text published to the channel or chat.
func RenderPublication(post *entity.Post, signature string) string {
	parts := []string{}
	if post.Kind == entity.KindPiar {
		parts = append(parts, renderPiar(&post.Piar))
	}

	if post.Text != "" {
		parts = append(parts, post.Text)
	}

	if len(post.Hashtags) > 0 {
		parts = append(parts, strings.Join(post.Hashtags, " "))
	}

	if signature != "" {
		parts = append(parts, signature)
	}

	return strings.Join(parts, "\n\n")
}

func renderPiar(p *entity.Piar) string {
	lines := []string{
		fmt.Sprintf("💼 %s", p.Name),
		fmt.Sprintf("🛠 %s", p.Profession),
	}

	if len(p.Districts) > 0 {
		lines = append(lines, fmt.Sprintf("📍 %s", strings.Join(p.Districts, ", ")))
	}

	if p.Phone != "" {
		lines = append(lines, fmt.Sprintf("📞 %s", p.Phone))
	}

	if p.Instagram != "" {
		lines = append(lines, fmt.Sprintf("📷 https://instagram.com/%s", p.Instagram))
	}

	if p.Telegram != "" {
		lines = append(lines, fmt.Sprintf("✈️ %s", p.Telegram))
	}

	if p.Price != "" {
		lines = append(lines, fmt.Sprintf("💰 %s", p.Price))
	}

	return strings.Join(lines, "\n")
}

// RenderModeration builds the announcement shown to moderators.
func RenderModeration(post *entity.Post, author *entity.User, signature string) string {
	category := post.Category
	if post.Subcategory != "" {
		category += " / " + post.Subcategory
	}

	authorLine := fmt.Sprintf("%s (id %d)", author.DisplayName(), author.ID)
	if post.Anonymous {
		authorLine += ", anonymous"
	}

	header := []string{
		fmt.Sprintf("📨 New %s for moderation", post.Kind),
		fmt.Sprintf("Category: %s", category),
		fmt.Sprintf("Author: %s", authorLine),
		fmt.Sprintf("Destination: %s", post.Destination),
		fmt.Sprintf("Media: %d", len(post.Media)),
		fmt.Sprintf("ID: %s", post.ID),
	}

	return strings.Join(header, "\n") + "\n\n" + RenderPublication(post, signature)
}

// ModerationKeyboard returns the decision buttons of a pending post.
func ModerationKeyboard(post *entity.Post) client.Keyboard {
	approve := "✅ Publish"
	if post.Destination == entity.DestinationPinnedChat {
		approve = "✅ To chat + pin"
	}

	return client.Keyboard{
		{
			{Text: approve, Data: ModerationCallback(DecisionApprove, post.ID)},
			{Text: "✏️ Edit", Data: ModerationCallback(DecisionEdit, post.ID)},
		},
		{
			{Text: "❌ Reject", Data: ModerationCallback(DecisionReject, post.ID)},
		},
	}
}

// ModerationCallback encodes a decision button as "mod:<action>:<post id>".
func ModerationCallback(action DecisionAction, postID string) string {
	return fmt.Sprintf("mod:%s:%s", action, postID)
}

// ParseModerationCallback is the inverse of ModerationCallback.
func ParseModerationCallback(data string) (DecisionAction, string, bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != "mod" || parts[2] == "" {
		return "", "", false
	}

	action, err := enum.ToEnum[DecisionAction](parts[1])
	if err != nil {
		return "", "", false
	}

	return action, parts[2], true
}
