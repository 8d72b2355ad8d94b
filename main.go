package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/novabite/assistant/agent/intent"
	"github.com/novabite/assistant/agent/knowledge"
	"github.com/novabite/assistant/agent/ops"
	"github.com/novabite/assistant/agent/orchestrator"
	"github.com/novabite/assistant/agent/prompt"
	"github.com/novabite/assistant/agent/rag"
	sessionx "github.com/novabite/assistant/agent/session"
	configx "github.com/novabite/assistant/pkg/config"
	_ "github.com/novabite/assistant/pkg/logger/autoload"
	openrouterx "github.com/novabite/assistant/pkg/openrouter"
	"github.com/novabite/assistant/server"
)

type AppConfig struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	SessionBackend  string        `envconfig:"SESSION_BACKEND" split_words:"true" default:"memory"`
	OpsBackend      string        `envconfig:"OPS_BACKEND" split_words:"true" default:"memory"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize chat model")
	}
	sdkClient := openrouterx.NewClient(*openRouterCfg)
	if sdkClient == nil {
		log.Fatal().Msg("initialize openrouter client")
	}

	embedder, err := rag.NewOpenAIEmbedder(sdkClient, openRouterCfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize embedder")
	}
	index, err := rag.NewIndex(embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize document index")
	}
	ingestCfg := configx.MustNew[rag.IngestionConfig]("RAG")
	ingestion, err := rag.NewIngestion(index, *ingestCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize ingestion")
	}

	prompts := prompt.LoadPromptSet()

	knowledgeResponder, err := knowledge.NewResponder(ctx, chatModel, index, ingestion, knowledge.Prompts{
		Rewrite: prompts.Rewrite,
		Answer:  prompts.Answer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("initialize knowledge responder")
	}

	opsStore := newOpsStore(ctx, appCfg.OpsBackend)
	gateway, err := ops.NewGateway(opsStore, time.Now)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize tool gateway")
	}
	opsResponder, err := ops.NewResponder(ctx, chatModel, gateway, prompts.Operations)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize operations responder")
	}

	classifier, err := intent.NewClassifier(ctx, chatModel, prompts.Router)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize classifier")
	}

	sessionStore := newSessionStore(appCfg.SessionBackend)

	orc, err := orchestrator.New(ctx, sessionStore, classifier, knowledgeResponder, opsResponder)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize orchestrator")
	}

	router := server.NewRouter(orc, sessionStore)
	runServer(ctx, appCfg, router)
}

func newOpsStore(ctx context.Context, backend string) ops.Store {
	switch backend {
	case "postgres":
		bunCfg := configx.MustNew[ops.BunConfig]("OPS")
		store, err := ops.NewBunStore(*bunCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize postgres ops store")
		}
		if err := store.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("bootstrap postgres ops store")
		}
		log.Info().Msg("operations store: postgres")
		return store
	default:
		log.Info().Msg("operations store: memory")
		return ops.NewMemoryStore()
	}
}

func newSessionStore(backend string) sessionx.Store {
	switch backend {
	case "redis":
		redisCfg := configx.MustNew[sessionx.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := sessionx.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize redis session store")
		}
		log.Info().Msg("session store: upstash redis")
		return store
	default:
		log.Info().Msg("session store: memory")
		return sessionx.NewMemoryStore()
	}
}

func runServer(ctx context.Context, cfg *AppConfig, handler http.Handler) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("assistant listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
