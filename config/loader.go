// Package config loads the bot's JSON configuration files from ~/Yomiko/config,
// creating default-valued files on first run so a fresh install has something
// to edit.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Re-assign os.UserHomeDir to a variable so we can mock it in tests.
var osUserHomeDir = os.UserHomeDir

// configDir returns the full path of the Yomiko config directory, creating it
// if necessary.
func configDir() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	dir := filepath.Join(home, "Yomiko", "config")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// loadOrCreate reads a JSON config file into v. If the file does not exist it
// is created with the current (default) contents of v.
func loadOrCreate(dir, filename string, v interface{}) error {
	path := filepath.Join(dir, filename)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		defaults, marshalErr := json.MarshalIndent(v, "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("could not marshal default config for %s: %w", filename, marshalErr)
		}
		if writeErr := os.WriteFile(path, defaults, 0644); writeErr != nil {
			return fmt.Errorf("could not create default config file %s: %w", filename, writeErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", filename, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not decode config file %s: %w", filename, err)
	}
	return nil
}

func defaultMainConfig() *MainConfig {
	return &MainConfig{
		DiscordConfig:  "discord.json",
		RedisConfig:    "redis.json",
		VoiceboxConfig: "voicebox.json",
		LLMConfig:      "llm.json",
	}
}

func defaultRedisConfig() *RedisConfig {
	return &RedisConfig{Addr: "localhost:6379"}
}

func defaultVoiceboxConfig() *VoiceboxConfig {
	return &VoiceboxConfig{
		BaseURL:        "http://localhost:50021",
		DefaultVoiceID: "1",
		TimeoutSeconds: 15,
	}
}

func defaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		BaseURL:        "https://generativelanguage.googleapis.com",
		Model:          "gemini-2.0-flash",
		TimeoutSeconds: 30,
	}
}

// LoadAllConfigs loads every config file, creating defaults where missing.
// Secrets can also come from the environment (or a .env file next to the
// binary): YOMIKO_DISCORD_TOKEN and YOMIKO_LLM_API_KEY override the file
// values when set.
func LoadAllConfigs() (*AllConfig, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	main := defaultMainConfig()
	if err := loadOrCreate(dir, "config.json", main); err != nil {
		return nil, err
	}

	discord := &DiscordConfig{}
	if err := loadOrCreate(dir, main.DiscordConfig, discord); err != nil {
		return nil, err
	}

	redis := defaultRedisConfig()
	if err := loadOrCreate(dir, main.RedisConfig, redis); err != nil {
		return nil, err
	}

	voicebox := defaultVoiceboxConfig()
	if err := loadOrCreate(dir, main.VoiceboxConfig, voicebox); err != nil {
		return nil, err
	}

	llm := defaultLLMConfig()
	if err := loadOrCreate(dir, main.LLMConfig, llm); err != nil {
		return nil, err
	}

	// .env is optional; missing files are fine.
	_ = godotenv.Load()
	if token := os.Getenv("YOMIKO_DISCORD_TOKEN"); token != "" {
		discord.Token = token
	}
	if key := os.Getenv("YOMIKO_LLM_API_KEY"); key != "" {
		llm.APIKey = key
	}

	return &AllConfig{
		Main:     main,
		Discord:  discord,
		Redis:    redis,
		Voicebox: voicebox,
		LLM:      llm,
	}, nil
}
