package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/hazuki-dev/yomiko/config"
)

const (
	keyPrefix     = "yomiko:"
	guildKeyGlob  = keyPrefix + "guild:*:settings"
	userKeyGlob   = keyPrefix + "user:*:voice"
	scanBatchSize = 100
)

// RedisPersistence stores settings snapshots in Redis, one key per guild and
// per user.
type RedisPersistence struct {
	rdb *redis.Client
	ctx context.Context
}

// NewRedisPersistence connects to Redis. A nil config or empty Addr returns
// (nil, nil): persistence is simply disabled.
func NewRedisPersistence(cfg *config.RedisConfig) (*RedisPersistence, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisPersistence{rdb: rdb, ctx: ctx}, nil
}

func (p *RedisPersistence) Ping() error {
	return p.rdb.Ping(p.ctx).Err()
}

func (p *RedisPersistence) Close() error {
	return p.rdb.Close()
}

func guildKey(guildID string) string {
	return fmt.Sprintf("%sguild:%s:settings", keyPrefix, guildID)
}

func userKey(userID string) string {
	return fmt.Sprintf("%suser:%s:voice", keyPrefix, userID)
}

// SaveGuildSettings writes one guild's settings as a JSON blob.
func (p *RedisPersistence) SaveGuildSettings(guildID string, gs *GuildSettings) error {
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("could not marshal settings for guild %s: %w", guildID, err)
	}
	return p.rdb.Set(p.ctx, guildKey(guildID), data, 0).Err()
}

// LoadAllGuildSettings scans all persisted guild records.
func (p *RedisPersistence) LoadAllGuildSettings() (map[string]*GuildSettings, error) {
	out := make(map[string]*GuildSettings)
	err := p.scan(guildKeyGlob, func(key string) error {
		data, err := p.rdb.Get(p.ctx, key).Bytes()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		gs := &GuildSettings{}
		if err := json.Unmarshal(data, gs); err != nil {
			return fmt.Errorf("could not unmarshal settings at %s: %w", key, err)
		}
		out[idFromKey(key)] = gs
		return nil
	})
	return out, err
}

// SaveUserVoice writes one user's voice override. An empty voiceID deletes
// the record.
func (p *RedisPersistence) SaveUserVoice(userID, voiceID string) error {
	if voiceID == "" {
		return p.rdb.Del(p.ctx, userKey(userID)).Err()
	}
	return p.rdb.Set(p.ctx, userKey(userID), voiceID, 0).Err()
}

// LoadAllUserVoices scans all persisted user overrides.
func (p *RedisPersistence) LoadAllUserVoices() (map[string]string, error) {
	out := make(map[string]string)
	err := p.scan(userKeyGlob, func(key string) error {
		voice, err := p.rdb.Get(p.ctx, key).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		out[idFromKey(key)] = voice
		return nil
	})
	return out, err
}

// scan iterates every key matching glob, calling fn for each.
func (p *RedisPersistence) scan(glob string, fn func(key string) error) error {
	var cursor uint64
	for {
		keys, next, err := p.rdb.Scan(p.ctx, cursor, glob, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("could not scan keys matching %s: %w", glob, err)
		}
		for _, key := range keys {
			if err := fn(key); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// idFromKey extracts the guild/user id from "yomiko:<kind>:<id>:<field>".
func idFromKey(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
