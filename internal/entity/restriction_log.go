package entity

import (
	"database/sql"

	"github.com/trixlive/backend/pkg/enum"
)

type RestrictionAction string

var (
	RestrictionBan           = enum.New(RestrictionAction("ban"), "ban")
	RestrictionUnban         = enum.New(RestrictionAction("unban"), "unban")
	RestrictionMute          = enum.New(RestrictionAction("mute"), "mute")
	RestrictionUnmute        = enum.New(RestrictionAction("unmute"), "unmute")
	RestrictionCooldownReset = enum.New(RestrictionAction("cooldown_reset"), "cooldown_reset")
)

type RestrictionLog struct {
	SnowFlakeBase

	UserID    int64 `gorm:"index"`
	Action    RestrictionAction
	Until     sql.NullTime
	ImposedBy int64
	Reason    string
}
