// Package main runs the imageman dev server: an in-process stand-in for
// the real service that the client library and CLI can be pointed at.
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

	"github.com/volcanic/imageman-go/internal/devserver"
	"github.com/volcanic/imageman-go/internal/events"
	"github.com/volcanic/imageman-go/internal/mwlogger"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("No .env file loaded: %s", err)
	}

	zlog.InitConsole()
	if err := zlog.SetLevel(levelOrDefault(appConfig.GetString("LOG_LEVEL"))); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := devserver.NewMinioStore(appConfig)
	if err != nil {
		log.Fatalf("Failed to connect to object store: %v", err)
	}

	// kafka notifications are optional - only when a broker is set
	var notifier devserver.Notifier = events.Noop{}
	var publisher *events.Publisher
	if broker := appConfig.GetString("KAFKA_BROKER"); broker != "" {
		topic := appConfig.GetString("KAFKA_TOPIC")
		if topic == "" {
			topic = "imageman-events"
		}
		publisher, err = events.NewPublisher(ctx, broker, topic)
		if err != nil {
			log.Fatalf("Failed to connect event publisher: %v", err)
		}
		notifier = publisher
	}

	svc := devserver.NewService(
		devserver.NewIndex(),
		store,
		notifier,
		"user://imageman-dev",
	)

	engine := ginext.New(appConfig.GetString("GIN_MODE"))
	devserver.NewHandler(svc).Register(engine)

	srv := &http.Server{
		Addr:    ":" + portOrDefault(appConfig.GetString("APP_PORT")),
		Handler: mwlogger.New(engine),
	}

	go func() {
		log.Printf("Dev server running on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	<-ctx.Done()
	shutdown(srv, publisher)
}

func shutdown(srv *http.Server, publisher *events.Publisher) {
	log.Println("Interrupt received, starting shutdown sequence...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to stop server cleanly:", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Println("Failed to close event publisher:", err)
		}
	}
	log.Println("Exiting dev server...")
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

func portOrDefault(port string) string {
	if port == "" {
		return "8080"
	}
	return port
}
