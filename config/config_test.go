package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEnvironment creates a temporary directory structure for config files.
// It returns the path to the temporary Yomiko config directory and a cleanup function.
func setupTestEnvironment(t *testing.T) (string, func()) {
	tempDir, err := os.MkdirTemp("", "yomiko-config-test")
	require.NoError(t, err)

	configPath := filepath.Join(tempDir, "Yomiko", "config")
	err = os.MkdirAll(configPath, 0755)
	require.NoError(t, err)

	// Temporarily override the user home directory function to point to our temp dir.
	originalHomeDirFunc := osUserHomeDir
	osUserHomeDir = func() (string, error) {
		return tempDir, nil
	}

	cleanup := func() {
		osUserHomeDir = originalHomeDirFunc
		os.RemoveAll(tempDir)
	}

	return configPath, cleanup
}

func TestLoadAllConfigs_Success(t *testing.T) {
	configPath, cleanup := setupTestEnvironment(t)
	defer cleanup()

	// --- Create mock config files ---
	mainCfg := MainConfig{
		DiscordConfig:  "discord.json",
		RedisConfig:    "redis.json",
		VoiceboxConfig: "voicebox.json",
		LLMConfig:      "llm.json",
	}
	mainData, _ := json.Marshal(mainCfg)
	err := os.WriteFile(filepath.Join(configPath, "config.json"), mainData, 0644)
	require.NoError(t, err)

	discordCfg := DiscordConfig{Token: "test-token", LogChannelID: "123"}
	discordData, _ := json.Marshal(discordCfg)
	err = os.WriteFile(filepath.Join(configPath, "discord.json"), discordData, 0644)
	require.NoError(t, err)

	redisCfg := RedisConfig{Addr: "localhost:1234"}
	redisData, _ := json.Marshal(redisCfg)
	err = os.WriteFile(filepath.Join(configPath, "redis.json"), redisData, 0644)
	require.NoError(t, err)

	voiceboxCfg := VoiceboxConfig{BaseURL: "http://voicebox:50021", DefaultVoiceID: "3"}
	voiceboxData, _ := json.Marshal(voiceboxCfg)
	err = os.WriteFile(filepath.Join(configPath, "voicebox.json"), voiceboxData, 0644)
	require.NoError(t, err)

	// --- Run the function ---
	allConfig, err := LoadAllConfigs()

	// --- Assert results ---
	assert.NoError(t, err)
	require.NotNil(t, allConfig)
	assert.Equal(t, "test-token", allConfig.Discord.Token)
	assert.Equal(t, "123", allConfig.Discord.LogChannelID)
	assert.Equal(t, "localhost:1234", allConfig.Redis.Addr)
	assert.Equal(t, "http://voicebox:50021", allConfig.Voicebox.BaseURL)
	assert.Equal(t, "3", allConfig.Voicebox.DefaultVoiceID)
}

func TestLoadAllConfigs_FileCreation(t *testing.T) {
	configPath, cleanup := setupTestEnvironment(t)
	defer cleanup()

	// --- Run the function without any pre-existing files ---
	allConfig, err := LoadAllConfigs()

	// --- Assert results ---
	assert.NoError(t, err)
	require.NotNil(t, allConfig)

	// Check that the default files were created
	assert.FileExists(t, filepath.Join(configPath, "config.json"))
	assert.FileExists(t, filepath.Join(configPath, "discord.json"))
	assert.FileExists(t, filepath.Join(configPath, "redis.json"))
	assert.FileExists(t, filepath.Join(configPath, "voicebox.json"))
	assert.FileExists(t, filepath.Join(configPath, "llm.json"))

	// Check that the config struct has the default values
	assert.Equal(t, "", allConfig.Discord.Token)
	assert.Equal(t, "localhost:6379", allConfig.Redis.Addr)
	assert.Equal(t, "http://localhost:50021", allConfig.Voicebox.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", allConfig.LLM.Model)
}

func TestLoadAllConfigs_InvalidJSON(t *testing.T) {
	configPath, cleanup := setupTestEnvironment(t)
	defer cleanup()

	// Create a malformed JSON file
	err := os.WriteFile(filepath.Join(configPath, "config.json"), []byte("{ not valid json }"), 0644)
	require.NoError(t, err)

	// --- Run the function ---
	_, err = LoadAllConfigs()

	// --- Assert results ---
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not decode config file")
}

func TestLoadAllConfigs_EnvOverride(t *testing.T) {
	_, cleanup := setupTestEnvironment(t)
	defer cleanup()

	t.Setenv("YOMIKO_DISCORD_TOKEN", "env-token")

	allConfig, err := LoadAllConfigs()
	require.NoError(t, err)
	assert.Equal(t, "env-token", allConfig.Discord.Token)
}
