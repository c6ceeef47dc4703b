package domain

import (
	"github.com/trixlive/backend/internal/domain/draft"
	"github.com/trixlive/backend/internal/entity"
)

// Topic is an entry of the publication menu.
type Topic struct {
	Key         string
	Title       string
	Category    string
	Subcategory string
	Kind        entity.PostKind
	Destination entity.Destination
	Hashtags    []string
	// Anonymous is the initial anonymity of drafts opened on the topic.
	Anonymous   bool
}

func (t Topic) Draft() draft.Topic {
	return draft.Topic{
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Hashtags:    t.Hashtags,
		Destination: t.Destination,
		Anonymous:   t.Anonymous,
	}
}

const ActualHashtag = "#Актуальное⚡️"

var topics = []Topic{
	announcement("work", "👷‍♀️ Работа", "#Работа", "#ВакансииБудапешт"),
	announcement("rent", "🏠 Аренда", "#Аренда", "#НедвижимостьБудапешт"),
	announcement("buy", "🔻 Куплю", "#Куплю", "#ПокупкаБудапешт"),
	announcement("sell", "🔺 Продам", "#Продам", "#ПродажаБудапешт"),
	announcement("events", "🎉 События", "#События", "#МероприятияБудапешт"),
	announcement("free", "📦 Отдам даром", "#ОтдамДаром", "#БесплатноБудапешт"),
	announcement("important", "🌪️ Важно", "#Важно", "#СрочноБудапешт"),
	announcement("other", "❔ Другое", "#Объявления", "#РазноеБудапешт"),
	{
		Key: "news", Title: "📺 Новости", Category: "news",
		Kind: entity.KindPost, Destination: entity.DestinationChannel,
		Hashtags: []string{"#Новости", "#НовостиБудапешт"},
	},
	{
		Key: "overheard", Title: "🤐 Подслушано", Category: "overheard",
		Kind: entity.KindPost, Destination: entity.DestinationChannel,
		Hashtags:  []string{"#Подслушано", "#ИсторииБудапешт"},
		Anonymous: true,
	},
	{
		Key: "complaints", Title: "🤮 Жалобы", Category: "complaints",
		Kind: entity.KindPost, Destination: entity.DestinationChannel,
		Hashtags:  []string{"#Жалобы", "#ПроблемыБудапешт"},
		Anonymous: true,
	},
	{
		Key: "actual", Title: "⚡️ Актуальное", Category: "actual",
		Kind: entity.KindPost, Destination: entity.DestinationPinnedChat,
		Hashtags: []string{ActualHashtag},
	},
	{
		Key: "services", Title: "💼 Услуги", Category: "services",
		Kind: entity.KindPiar, Destination: entity.DestinationChannel,
		Hashtags: []string{"#Услуги", "#БизнесБудапешт"},
	},
}

func announcement(sub, title string, hashtags ...string) Topic {
	return Topic{
		Key:         "announcements:" + sub,
		Title:       title,
		Category:    "announcements",
		Subcategory: sub,
		Kind:        entity.KindPost,
		Destination: entity.DestinationChannel,
		Hashtags:    hashtags,
	}
}

// Topics returns the publication menu in display order.
func Topics() []Topic {
	return append([]Topic(nil), topics...)
}

func TopicByKey(key string) (Topic, bool) {
	for _, t := range topics {
		if t.Key == key {
			return t, true
		}
	}

	return Topic{}, false
}

// Hashtags returns the tags of a category and subcategory, or nil when the
// pair is unknown.
func Hashtags(category, subcategory string) []string {
	for _, t := range topics {
		if t.Category == category && t.Subcategory == subcategory {
			return append([]string(nil), t.Hashtags...)
		}
	}

	return nil
}
