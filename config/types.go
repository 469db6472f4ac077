package config

// MainConfig points at the per-service config files inside ~/Yomiko/config.
type MainConfig struct {
	DiscordConfig  string `json:"discord_config"`
	RedisConfig    string `json:"redis_config"`
	VoiceboxConfig string `json:"voicebox_config"`
	LLMConfig      string `json:"llm_config"`
}

// DiscordConfig holds Discord-specific settings.
type DiscordConfig struct {
	Token        string `json:"token"`
	AppID        string `json:"app_id"`
	LogChannelID string `json:"log_channel_id"`
}

// RedisConfig holds the connection settings for the settings snapshot store.
// An empty Addr disables persistence; the bot then runs purely in-memory.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// VoiceboxConfig holds the speech backend settings.
type VoiceboxConfig struct {
	// BaseURL is the root of the VOICEVOX-compatible engine, e.g. "http://voicebox:50021".
	BaseURL string `json:"base_url"`
	// SpeakersFile optionally points at a local speakers.json. When set, the
	// catalog is read from disk instead of GET {BaseURL}/speakers.
	SpeakersFile string `json:"speakers_file"`
	// DefaultVoiceID is the process-wide fallback voice.
	DefaultVoiceID string `json:"default_voice_id"`
	// TimeoutSeconds bounds each synthesis request.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// LLMConfig holds the generative-text backend settings for the umigame game.
type LLMConfig struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// AllConfig aggregates every loaded config file.
type AllConfig struct {
	Main     *MainConfig
	Discord  *DiscordConfig
	Redis    *RedisConfig
	Voicebox *VoiceboxConfig
	LLM      *LLMConfig
}
