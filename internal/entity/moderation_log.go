package entity

import "github.com/trixlive/backend/pkg/enum"

type ModerationAction string

var (
	ModerationApprove = enum.New(ModerationAction("approve"), "approve")
	ModerationReject  = enum.New(ModerationAction("reject"), "reject")
	ModerationEdit    = enum.New(ModerationAction("edit"), "edit")
)

// ModerationLog is append-only. One row is written per decision.
type ModerationLog struct {
	SnowFlakeBase

	PostID      string `gorm:"index"`
	ModeratorID int64
	Action      ModerationAction
	Reason      string
	EditedText  string `gorm:"type:text"`
	Link        string
}
