package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load builds the configuration in layers: defaults, then the TOML file at
// path (skipped when empty), then the .env file, then process environment.
func Load(path, envFile string) (Configs, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c Configs) Validate() error {
	if c.Cooldown.Duration < 0 {
		return errors.New("cooldown duration must not be negative")
	}

	if c.Scheduler.MinInterval > c.Scheduler.MaxInterval {
		return errors.New("scheduler min interval is greater than max interval")
	}

	if len(c.Game.Variants) == 0 {
		return errors.New("at least one game variant is required")
	}

	if c.Draft.MaxPiarMedia <= 0 || c.Draft.MaxPostMedia <= 0 {
		return errors.New("media limits must be positive")
	}

	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Configs, lookup lookupFunc) error {
	var err error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	id := func(key string, dst *int64) {
		if v, ok := lookup(key); ok && err == nil {
			*dst, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
			}
		}
	}

	ids := func(key string, dst *[]int64) {
		if v, ok := lookup(key); ok && err == nil {
			*dst, err = parseIDs(v)
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
			}
		}
	}

	minutes := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && err == nil {
			var n int
			n, err = strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
				return
			}
			*dst = time.Duration(n) * time.Minute
		}
	}

	str("ENV", &cfg.Env)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_ENCODING", &cfg.Log.Encoding)
	str("DATABASE_HOST", &cfg.Database.Host)
	str("DATABASE_PORT", &cfg.Database.Port)
	str("DATABASE_NAME", &cfg.Database.Database)
	str("DATABASE_USER", &cfg.Database.User)
	str("DATABASE_PASSWORD", &cfg.Database.Password)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("METRICS_PORT", &cfg.Metrics.Port)
	str("TG_BOT_TOKEN", &cfg.Telegram.Token)
	str("CHANNEL_LINK", &cfg.Telegram.ChannelLink)
	str("DEFAULT_SIGNATURE", &cfg.Moderation.Signature)
	str("DEFAULT_LINK", &cfg.Moderation.DefaultLink)
	str("DEFAULT_PROMO_MESSAGE", &cfg.Scheduler.Message)

	if v, ok := lookup("KAFKA_ADDRS"); ok {
		cfg.Kafka.Addrs = splitList(v)
	}

	id("TARGET_CHANNEL_ID", &cfg.Telegram.ChannelID)
	id("MODERATION_GROUP_ID", &cfg.Telegram.ModerationChatID)
	id("CHAT_FOR_ACTUAL", &cfg.Telegram.ActualChatID)
	id("SCHEDULER_CHAT_ID", &cfg.Scheduler.ChatID)
	ids("ADMIN_IDS", &cfg.Roles.AdminIDs)
	ids("MODERATOR_IDS", &cfg.Roles.ModeratorIDs)
	minutes("SCHEDULER_MIN", &cfg.Scheduler.MinInterval)
	minutes("SCHEDULER_MAX", &cfg.Scheduler.MaxInterval)

	if v, ok := lookup("COOLDOWN_SECONDS"); ok && err == nil {
		var n int
		n, err = strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("COOLDOWN_SECONDS: %w", err)
		}
		cfg.Cooldown.Duration = time.Duration(n) * time.Second
	}

	if v, ok := lookup("SCHEDULER_ENABLED"); ok {
		cfg.Scheduler.Enabled = strings.EqualFold(strings.TrimSpace(v), "true")
	}

	return err
}

func parseIDs(s string) ([]int64, error) {
	result := []int64{}
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}

		result = append(result, id)
	}

	return result, nil
}

func splitList(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}

	return result
}
