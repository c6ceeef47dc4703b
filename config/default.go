package config

import "time"

func Default() Configs {
	return Configs{
		Env: "local",
		Log: LogConfigs{
			Level:    "info",
			Encoding: "json",
		},
		Database: DatabaseConfigs{
			Host:     "localhost",
			Port:     "3306",
			Database: "trixbot",
			User:     "root",
		},
		Redis: RedisConfigs{Addr: "localhost:6379"},
		Kafka: KafkaConfigs{ClientID: "trixbot"},
		Metrics: ServerConfigs{
			Host: "0.0.0.0",
			Port: "9090",
		},
		Telegram: TelegramConfigs{
			PollTimeout: 60 * time.Second,
		},
		Cooldown: CooldownConfigs{
			Duration: 5666 * time.Second,
		},
		Filter: FilterConfigs{
			BannedSubstrings: []string{
				"http://", "https://", "t.me/", "www.",
				"bit.ly", "tinyurl.com", "cutt.ly", "goo.gl",
				"shorturl.at", "ow.ly", "is.gd", "buff.ly",
			},
		},
		Draft: DraftConfigs{
			MaxPostMedia:   10,
			MaxPiarMedia:   3,
			MaxDistricts:   3,
			MaxTextLength:  4000,
			MaxFieldLength: 100,
			MaxDescription: 1000,
			MinPhoneLength: 7,
		},
		Moderation: ModerationConfigs{
			Signature:   "Bot for your publications",
			PendingPage: 10,
		},
		Game: GameConfigs{
			Variants:        []string{"play3xia", "play3x", "playxxx"},
			DefaultInterval: 60 * time.Minute,
			MaxWinners:      5,
		},
		XP: XPConfigs{
			Message:     1,
			Media:       2,
			Approved:    5,
			Referral:    10,
			HourlyLimit: 50,
			Levels: []XPLevel{
				{MinXP: 0, Title: "Newcomer"},
				{MinXP: 50, Title: "Tourist"},
				{MinXP: 150, Title: "Worker"},
				{MinXP: 300, Title: "Integrated"},
				{MinXP: 600, Title: "Native"},
				{MinXP: 1000, Title: "One of us"},
			},
		},
		Scheduler: SchedulerConfigs{
			MinInterval: 120 * time.Minute,
			MaxInterval: 160 * time.Minute,
			Message:     "Make a publication with the bot",
		},
		Bot: BotConfigs{Workers: 8},
	}
}
