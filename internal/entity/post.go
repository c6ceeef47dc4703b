package entity

import (
	"database/sql"

	"github.com/trixlive/backend/pkg/enum"
)

type PostKind string

var (
	KindPost = enum.New(PostKind("post"), "post")
	KindPiar = enum.New(PostKind("piar"), "piar")
)

type PostStatus string

var (
	PostPending  = enum.New(PostStatus("pending"), "pending")
	PostApproved = enum.New(PostStatus("approved"), "approved")
	PostRejected = enum.New(PostStatus("rejected"), "rejected")
	PostEdited   = enum.New(PostStatus("edited"), "edited")
)

type Destination string

var (
	DestinationChannel    = enum.New(Destination("channel"), "channel")
	DestinationPinnedChat = enum.New(Destination("pinned_chat"), "pinned_chat")
)

type MediaType string

var (
	MediaPhoto    = enum.New(MediaType("photo"), "photo")
	MediaVideo    = enum.New(MediaType("video"), "video")
	MediaDocument = enum.New(MediaType("document"), "document")
)

type Media struct {
	Type   MediaType `json:"type"`
	FileID string    `json:"file_id"`
}

// Piar holds the fields of a business listing.
type Piar struct {
	Name       string
	Profession string
	Districts  Array[string]
	Phone      string
	Instagram  string
	Telegram   string
	Price      string
}

type Post struct {
	Base

	UserID      int64 `gorm:"index"`
	Kind        PostKind
	Category    string
	Subcategory string
	Text        string `gorm:"type:text"`
	Media       Array[Media]
	Hashtags    Array[string]
	Anonymous   bool
	Destination Destination

	Status              PostStatus `gorm:"index"`
	ModeratorID         sql.NullInt64
	DecidedAt           sql.NullTime
	PublishedLink       string
	ModerationMessageID int

	Piar Piar `gorm:"embedded;embeddedPrefix:piar_"`
}
