package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Log        LogConfigs
	Database   DatabaseConfigs
	Redis      RedisConfigs
	Kafka      KafkaConfigs
	Metrics    ServerConfigs
	Telegram   TelegramConfigs
	Roles      RoleConfigs
	Cooldown   CooldownConfigs
	Filter     FilterConfigs
	Draft      DraftConfigs
	Moderation ModerationConfigs
	Game       GameConfigs
	XP         XPConfigs
	Scheduler  SchedulerConfigs
	Bot        BotConfigs
}

type LogConfigs struct {
	Level    string
	Encoding string
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addrs    []string
	ClientID string
}

type ServerConfigs struct {
	Host string
	Port string
}

func (s ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type TelegramConfigs struct {
	Token string

	// Public channel receiving approved posts.
	ChannelID int64

	// Link prefix of the public channel, e.g. https://t.me/somechannel.
	ChannelLink string

	// Group where posts are announced to moderators.
	ModerationChatID int64

	// Chat receiving posts that must be pinned.
	ActualChatID int64

	PollTimeout time.Duration
}

type RoleConfigs struct {
	AdminIDs     []int64
	ModeratorIDs []int64
}

type CooldownConfigs struct {
	Duration time.Duration
}

type FilterConfigs struct {
	BannedSubstrings []string
}

type DraftConfigs struct {
	MaxPostMedia   int
	MaxPiarMedia   int
	MaxDistricts   int
	MaxTextLength  int
	MaxFieldLength int
	MaxDescription int
	MinPhoneLength int
}

type ModerationConfigs struct {
	// Reference used for edited posts when the moderator supplies no link.
	DefaultLink string
	Signature   string
	PendingPage int
}

type GameConfigs struct {
	Variants        []string
	DefaultInterval time.Duration
	MaxWinners      int
}

type XPConfigs struct {
	Message     uint64
	Media       uint64
	Approved    uint64
	Referral    uint64
	HourlyLimit uint64
	Levels      []XPLevel
}

type XPLevel struct {
	MinXP uint64 `toml:"min_xp"`
	Title string `toml:"title"`
}

type SchedulerConfigs struct {
	Enabled     bool
	ChatID      int64
	MinInterval time.Duration
	MaxInterval time.Duration
	Message     string
}

type BotConfigs struct {
	Workers int
}

func (r RoleConfigs) IsAdmin(userID int64) bool {
	for _, id := range r.AdminIDs {
		if id == userID {
			return true
		}
	}

	return false
}

// IsModerator also holds for admins.
func (r RoleConfigs) IsModerator(userID int64) bool {
	if r.IsAdmin(userID) {
		return true
	}

	for _, id := range r.ModeratorIDs {
		if id == userID {
			return true
		}
	}

	return false
}

// Moderators returns the union of admins and moderators without duplicates.
func (r RoleConfigs) Moderators() []int64 {
	seen := map[int64]bool{}
	result := []int64{}
	for _, ids := range [][]int64{r.AdminIDs, r.ModeratorIDs} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				result = append(result, id)
			}
		}
	}

	return result
}
