package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smarttalks/booker-agent/internal/agent"
	"github.com/smarttalks/booker-agent/internal/config"
	"github.com/smarttalks/booker-agent/internal/engine"
	"github.com/smarttalks/booker-agent/internal/handler"
	"github.com/smarttalks/booker-agent/internal/prompt"
	"github.com/smarttalks/booker-agent/internal/schedule"
	"github.com/smarttalks/booker-agent/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Calendar store: Mongo when configured, in-memory otherwise.
	var store schedule.Store
	if cfg.Schedule.Enabled() {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Schedule.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongodb: %v", err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("mongodb disconnect error: %v", err)
			}
		}()
		store = schedule.NewMongoStore(client, cfg.Schedule.Database, cfg.Schedule.Collection)
		log.Println("schedule store backed by mongodb")
	} else {
		store = schedule.NewMemoryStore()
		log.Println("MONGODB_URI not set, schedule store is in-memory and resets on restart")
	}

	// Audio uploads are optional.
	var uploader engine.Uploader
	if cfg.Storage.Enabled() {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.Storage.Bucket, cfg.Storage.Region)
		if err != nil {
			log.Printf("warning: failed to initialize s3 uploader: %v", err)
		} else {
			uploader = s3Uploader
			log.Println("audio uploads enabled")
		}
	} else {
		log.Println("S3_BUCKET or AWS_REGION not set, audio uploads disabled")
	}

	// Conversation engines need a chat model for both turn passes.
	var engines *engine.Service
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Fatalf("failed to initialize chat model: %v", err)
		}

		intentAgent, err := agent.NewIntentAgent(ctx, chatModel, store)
		if err != nil {
			log.Fatalf("failed to build intent agent: %v", err)
		}
		responder, err := agent.NewResponder(ctx, chatModel)
		if err != nil {
			log.Fatalf("failed to build responder: %v", err)
		}

		prompts := prompt.NewBuilder(nil)
		opts := engine.Options{RetainPartial: cfg.Engine.RetainPartial}
		engines = engine.NewService(func() *engine.Engine {
			return engine.New(intentAgent, responder, uploader, prompts, opts)
		})
		log.Println("conversation service initialized")
	} else {
		log.Println("ark credentials not configured, conversation endpoints disabled")
	}

	router := handler.NewRouter(engines, store, cfg.Server.AllowedOrigins)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("booking assistant backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
