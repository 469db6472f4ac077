// Package app wires the bot together: config, Discord session, speech
// backend, settings store, playback pipeline, game manager, and the event
// handlers that connect them.
package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hazuki-dev/yomiko/audio"
	"github.com/hazuki-dev/yomiko/commands"
	"github.com/hazuki-dev/yomiko/config"
	"github.com/hazuki-dev/yomiko/dispatch"
	"github.com/hazuki-dev/yomiko/events"
	"github.com/hazuki-dev/yomiko/llm"
	logger "github.com/hazuki-dev/yomiko/log"
	"github.com/hazuki-dev/yomiko/playback"
	"github.com/hazuki-dev/yomiko/session"
	"github.com/hazuki-dev/yomiko/settings"
	"github.com/hazuki-dev/yomiko/umigame"
	"github.com/hazuki-dev/yomiko/voicebox"
)

// App holds every long-lived component of the bot.
type App struct {
	Config   *config.AllConfig
	Session  *discordgo.Session
	Voicebox *voicebox.Client
	Store    *settings.Store
	Queue    *playback.Manager
	Games    *umigame.Manager

	persistence *settings.RedisPersistence
}

// NewApp builds the bot from config. A failed catalog load or unreachable
// Redis degrades the affected feature but does not abort startup.
func NewApp() (*App, error) {
	cfg, err := config.LoadAllConfigs()
	if err != nil {
		return nil, fmt.Errorf("fatal error loading config: %w", err)
	}

	s, err := session.NewSession(cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	vb := voicebox.New(cfg.Voicebox.BaseURL, cfg.Voicebox.SpeakersFile, time.Duration(cfg.Voicebox.TimeoutSeconds)*time.Second)
	if err := vb.Initialize(); err != nil {
		// Fails closed: voice resolution stays unavailable until a retry.
		logger.Error("Failed to load speaker catalog", err)
	}

	persistence, err := settings.NewRedisPersistence(cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to Redis, settings will not persist", err)
		persistence = nil
	}

	store := settings.NewStore(cfg.Voicebox.DefaultVoiceID, persistenceOrNil(persistence))
	store.SetSaveErrorHandler(logger.Error)
	if err := store.Load(); err != nil {
		logger.Error("Failed to load persisted settings", err)
	}

	queue := playback.NewManager(vb, audio.NewPlayer(s),
		playback.WithSynthTimeout(time.Duration(cfg.Voicebox.TimeoutSeconds)*time.Second),
		playback.WithErrorHandler(logger.Error),
	)

	games := umigame.NewManager(llm.NewClient(cfg.LLM))

	return &App{
		Config:      cfg,
		Session:     s,
		Voicebox:    vb,
		Store:       store,
		Queue:       queue,
		Games:       games,
		persistence: persistence,
	}, nil
}

// persistenceOrNil converts a typed nil into an untyped nil interface.
func persistenceOrNil(p *settings.RedisPersistence) settings.Persistence {
	if p == nil {
		return nil
	}
	return p
}

// Run connects to Discord and blocks until SIGINT/SIGTERM.
func (a *App) Run() {
	dispatcher := dispatch.New(a.Store, a.Queue)
	cmdHandler := commands.NewHandler(a.Config.Discord, a.Store, a.Queue, a.Voicebox, a.Games)
	eventHandler := events.NewHandler(dispatcher, cmdHandler, a.Queue)

	logger.Init(a.Session, a.Config.Discord.LogChannelID)
	a.Session.AddHandler(eventHandler.Ready)
	a.Session.AddHandler(eventHandler.MessageCreate)
	a.Session.AddHandler(eventHandler.InteractionCreate)
	a.Session.AddHandler(eventHandler.VoiceStateUpdate)

	if err := a.Session.Open(); err != nil {
		logger.Fatal("Error opening connection to Discord", err)
	}

	bootMessage, err := logger.PostInitialMessage("`Yomiko` is starting up...")
	if err != nil {
		logger.Error("Failed to post initial boot message", err)
	}
	bootMessageID := ""
	if bootMessage != nil {
		bootMessageID = bootMessage.ID
	}
	updateBootMessage := func(content string) {
		if bootMessage != nil {
			logger.UpdateInitialMessage(bootMessageID, content)
		}
	}

	updateBootMessage("`Yomiko` is starting up...\n✅ Discord connection established")

	appID := a.Config.Discord.AppID
	if appID == "" && a.Session.State.User != nil {
		appID = a.Session.State.User.ID
	}
	if err := cmdHandler.Register(a.Session, appID); err != nil {
		logger.Error("Failed to register slash commands", err)
	}
	updateBootMessage("`Yomiko` is starting up...\n✅ Discord connection established\n✅ Commands registered")

	catalogStatus := "❌ Speaker catalog unavailable"
	if a.Voicebox.Ready() {
		catalogStatus = fmt.Sprintf("✅ Speaker catalog loaded (%d speakers)", len(a.Voicebox.Speakers()))
	}
	persistStatus := "⚠️ Settings persistence disabled"
	if a.persistence != nil {
		persistStatus = "✅ Settings persistence connected"
	}
	updateBootMessage(fmt.Sprintf("`Yomiko` is running\n✅ Discord connection established\n✅ Commands registered\n%s\n%s", catalogStatus, persistStatus))

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Drain and persist before dropping the gateway.
	a.Queue.Shutdown()
	if err := a.Store.Flush(); err != nil {
		logger.Error("Failed to flush settings", err)
	}
	if a.persistence != nil {
		_ = a.persistence.Close()
	}
	_ = a.Session.Close()
	fmt.Println("\nBot shutting down.")
}
