package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"trend-finder-be/internal/config"
	"trend-finder-be/internal/controller"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/pkg/serverutils"
	"trend-finder-be/internal/repository/kv"
	"trend-finder-be/internal/repository/memory"
	"trend-finder-be/internal/service"
	"trend-finder-be/internal/websocket"
	"trend-finder-be/pkg/analysis"
	"trend-finder-be/pkg/conversation"
	"trend-finder-be/pkg/events"
	"trend-finder-be/pkg/gemini"
	"trend-finder-be/pkg/speech"
	"trend-finder-be/pkg/workspace"

	pktNats "trend-finder-be/pkg/nats"

	"github.com/redis/go-redis/v9"
)

const relayDurableName = "trend-finder-relay"

type Container struct {
	// Controllers
	ClientController     controller.IClientController
	AnalysisController   controller.IAnalysisController
	ChatController       controller.IChatController
	SpeechController     controller.ISpeechController
	PreferenceController controller.IPreferenceController
	AuthController       controller.IAuthController
	BackupController     controller.IBackupController

	// Background Services (started by Start)
	EventRelay   service.IEventRelayService
	WebSocketHub *websocket.Hub

	Workspaces service.IWorkspaceService
	Logger     logger.ILogger

	cleanups []func()
}

// NewContainer wires the production graph: Gemini over HTTP and the zap logger.
func NewContainer(cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	geminiClient := gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Timeout:        cfg.Gemini.Timeout,
		RPM:            cfg.Gemini.RPM,
		MaxRetries:     cfg.Gemini.MaxRetries,
		RetryBaseDelay: cfg.Gemini.RetryBase,
	}, sysLogger)

	return Build(cfg, geminiClient, sysLogger, logger.NewIsolatedLogger(cfg.App.SocketLogFilePath))
}

// Build wires everything around gen. Tests pass a fake generator and nop loggers.
func Build(cfg *config.Config, gen gemini.Generator, sysLogger, wsLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		log.Println("[WARN] JWT_SECRET is empty; client tokens use an insecure development secret")
		cfg.Auth.JWTSecret = "trend-finder-dev-secret"
	}

	// 1. Storage
	store, closeStore, err := kv.NewStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	c.cleanups = append(c.cleanups, closeStore)
	log.Printf("[INFO] Using storage driver: %s", cfg.Storage.Driver)

	// 2. Event Bus
	publisher, subscribe := c.newEventBus(cfg.Events, sysLogger)

	// 3. WebSocket Hub
	var rdb *redis.Client
	if cfg.Events.SocketCluster {
		rdb = connectRedis(cfg.Storage.RedisURL)
		if rdb != nil {
			c.cleanups = append(c.cleanups, func() { rdb.Close() })
		}
	}
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 4. Domain
	deps := workspace.Dependencies{
		Analyzer:    analysis.NewAnalyzer(gen, cfg.Gemini.AnalysisModel, sysLogger),
		ChatFactory: conversation.NewGeminiFactory(gen, cfg.Gemini.ChatModel),
		Synthesizer: speech.NewSynthesizer(gen, cfg.Gemini.TTSModel, cfg.Gemini.Voice, sysLogger),
		Notifier:    events.NewNotifier(publisher, sysLogger),
		Logger:      sysLogger,
	}
	workspaceRepo := memory.NewWorkspaceRepository(cfg.Storage.WorkspaceTTL)

	// 5. Services
	c.Workspaces = service.NewWorkspaceService(workspaceRepo, store, deps, sysLogger)
	c.cleanups = append(c.cleanups, c.Workspaces.CloseAll)
	tokens := serverutils.NewClientTokens(cfg.Auth.JWTSecret, cfg.Auth.ClientTokenTTL)

	clientService := service.NewClientService(tokens)
	discourseService := service.NewDiscourseService(c.Workspaces)
	speechService := service.NewSpeechService(c.Workspaces, c.WebSocketHub)
	preferenceService := service.NewPreferenceService(c.Workspaces)
	authService := service.NewAuthService(c.Workspaces, cfg.Auth, sysLogger)
	backupService := service.NewBackupService(c.Workspaces)
	c.EventRelay = service.NewEventRelayService(subscribe, c.WebSocketHub, sysLogger)

	// 6. Controllers
	requireClient := tokens.Middleware
	c.ClientController = controller.NewClientController(clientService, c.Workspaces, c.WebSocketHub, requireClient, sysLogger)
	c.AnalysisController = controller.NewAnalysisController(discourseService, requireClient)
	c.ChatController = controller.NewChatController(discourseService, requireClient)
	c.SpeechController = controller.NewSpeechController(speechService, requireClient)
	c.PreferenceController = controller.NewPreferenceController(preferenceService, requireClient)
	c.AuthController = controller.NewAuthController(authService, requireClient, cfg.App.FrontendURL, sysLogger)
	c.BackupController = controller.NewBackupController(backupService, requireClient)

	return c, nil
}

// newEventBus returns the publisher workspaces emit to and the matching
// subscription for the relay. NATS falls back to the in-process bus when it
// cannot be reached.
func (c *Container) newEventBus(cfg config.EventsConfig, sysLogger logger.ILogger) (events.Publisher, service.SubscribeFunc) {
	if strings.EqualFold(cfg.Bus, "nats") {
		natsPub, err := pktNats.NewPublisher(cfg.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
		natsSub, subErr := pktNats.NewSubscriber(cfg.NatsURL, sysLogger)
		if subErr != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", subErr)
		}

		if err == nil && subErr == nil {
			c.cleanups = append(c.cleanups, natsPub.Close, natsSub.Close)
			log.Printf("[INFO] Using event bus: NATS (%s)", cfg.NatsURL)
			return natsPub, func(ctx context.Context, handler events.Handler) error {
				return natsSub.Subscribe(ctx, relayDurableName, handler)
			}
		}
		if natsPub != nil {
			natsPub.Close()
		}
		if natsSub != nil {
			natsSub.Close()
		}
	}

	bus := events.NewChannelBus(sysLogger)
	c.cleanups = append(c.cleanups, func() { bus.Close() })
	log.Printf("[INFO] Using event bus: gochannel")
	return bus, bus.Subscribe
}

func connectRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, socket cluster disabled: %v", err)
		rdb.Close()
		return nil
	}
	return rdb
}

// Start runs the websocket hub and the event relay until ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	return c.EventRelay.Start(ctx)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		c.cleanups[i]()
	}
	c.Logger.Sync()
}
