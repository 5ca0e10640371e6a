package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/alemana-chat/internal/api/middlewares"
	"github.com/markdave123-py/alemana-chat/internal/config"
	"github.com/markdave123-py/alemana-chat/internal/core"
	"github.com/markdave123-py/alemana-chat/internal/core/catalog"
	"github.com/markdave123-py/alemana-chat/internal/core/chat"
	db "github.com/markdave123-py/alemana-chat/internal/core/database"
	"github.com/markdave123-py/alemana-chat/internal/core/identitystore"
	"github.com/markdave123-py/alemana-chat/internal/core/llm"
	objectclient "github.com/markdave123-py/alemana-chat/internal/core/object-client"
	"github.com/markdave123-py/alemana-chat/internal/core/reglink"
	"github.com/markdave123-py/alemana-chat/internal/core/sheets"
	"github.com/markdave123-py/alemana-chat/internal/services"
)

const sweepInterval = time.Minute

type App struct {
	Chats  *services.ChatService
	Server *Server

	backend  *llm.GeminiChat
	dbClient *db.DatabaseClient
	sqlite   *identitystore.SQLite
	log      *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{log: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var objects *objectclient.S3Client
	if cfg.IdentityStore == "s3" || cfg.CatalogS3Key != "" {
		objects, err = objectclient.NewS3Client(appCtx, objectclient.Credentials{
			AccessKey: cfg.AwsAccessKey,
			SecretKey: cfg.AwsSecretKey,
			Region:    cfg.AwsRegion,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("object client initialized and ready")
	}

	store, err := a.identityStore(appCtx, cfg, objects)
	if err != nil {
		return nil, err
	}

	loader := catalog.NewLoader(objectsOrNil(objects), catalog.NewDocconvExtractor(false), logger)
	catalogText, err := loader.Load(appCtx, catalog.Source{Path: cfg.CatalogPath, Bucket: cfg.BucketName, Key: cfg.CatalogS3Key})
	if err != nil {
		return nil, fmt.Errorf("couldn't load the product catalog, %w", err)
	}

	a.backend, err = llm.NewGeminiChat(appCtx, cfg.AIAPIKey, cfg.GenModel, catalogText, logger)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the chat backend, %w", err)
	}

	var sheetsRegistrar, dbRegistrar core.Registrar
	if cfg.SheetsEnabled() {
		values, err := sheets.NewServiceValues(appCtx, cfg.SheetsCredentialsFile, cfg.SheetID)
		if err != nil {
			return nil, err
		}
		sheetsRegistrar = sheets.NewRegistrar(values, cfg.SheetName, logger)
		logger.Info("sheets registrar enabled", zap.String("sheet", cfg.SheetName))
	}

	var registrations *services.RegistrationService
	if cfg.DatabaseEnabled() {
		a.dbClient, err = db.NewDatabaseClient(appCtx, cfg.DatabaseURL, cfg.SslCertPath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("database initialized and ready")
		registrations = services.NewRegistrationService(a.dbClient, logger)
		dbRegistrar = registrations
	}

	registrar := services.NewMultiRegistrar(sheetsRegistrar, dbRegistrar)
	if registrar.Len() == 0 {
		logger.Warn("no registrar configured; identity submissions are only stored locally")
	}

	sessionOpts := chat.Options{
		Ceiling:        cfg.MaxMessages,
		FormDelay:      cfg.FormDelay,
		BackendTimeout: cfg.BackendTimeout,
	}
	a.Chats = services.NewChatService(
		llm.NewRateLimited(a.backend, cfg.BackendRPM),
		store,
		registrar,
		services.ChatConfig{
			AdvisorPhone: cfg.AdvisorPhone,
			Session:      sessionOpts,
			TTL:          cfg.SessionTTL,
		},
		logger,
	)

	tokens := appMiddleware.NewVisitorTokens(cfg.JWTSecret)

	var links handlers.PhoneOpener
	var clients handlers.ClientRegistrar
	if cfg.ReglinkKey != "" && registrations != nil {
		sealer, err := reglink.NewSealer(cfg.ReglinkKey)
		if err != nil {
			return nil, err
		}
		links, clients = sealer, registrations
	}

	a.Server = NewServer(cfg,
		handlers.NewChatHandler(a.Chats, tokens, logger),
		handlers.NewRegistrationHandler(links, clients, logger),
		tokens,
		logger,
	)
	return a, nil
}

func (a *App) identityStore(ctx context.Context, cfg *config.Config, objects *objectclient.S3Client) (core.IdentityStore, error) {
	switch cfg.IdentityStore {
	case "memory":
		return identitystore.NewMemory(), nil
	case "s3":
		return identitystore.NewObjectStore(objects, cfg.BucketName), nil
	default:
		store, err := identitystore.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.sqlite = store
		return store, nil
	}
}

// objectsOrNil keeps a nil *S3Client from becoming a non-nil interface.
func objectsOrNil(c *objectclient.S3Client) core.ObjectClient {
	if c == nil {
		return nil
	}
	return c
}

// RunSweeper expires idle sessions until ctx is cancelled.
func (a *App) RunSweeper(ctx context.Context) {
	a.Chats.Run(ctx, sweepInterval)
}

func (a *App) Close() {
	if a.Chats != nil {
		a.Chats.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Warn("close chat backend", zap.Error(err))
		}
	}
	if a.dbClient != nil {
		if err := a.dbClient.Close(); err != nil {
			a.log.Warn("close database", zap.Error(err))
		}
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.log.Warn("close identity store", zap.Error(err))
		}
	}
}
