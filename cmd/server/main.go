package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adchub/hub/internal/audit"
	"github.com/adchub/hub/internal/config"
	"github.com/adchub/hub/internal/hub"
	"github.com/adchub/hub/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	sink, err := audit.Open(cfg.Audit)
	if err != nil {
		log.Fatalf("Failed to open audit sink: %v", err)
	}

	h, err := hub.New(cfg, sink)
	if err != nil {
		log.Fatalf("Failed to start hub: %v", err)
	}

	server := ws.NewServer(cfg, h)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	httpServer := ws.NewHTTPServer(cfg.Server.Host, cfg.Server.Port, ws.SecurityHeaders(mux))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Hub %q listening on %s (audit sink %s)", cfg.Hub.Name, httpServer.Addr, cfg.Audit.Sink)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	h.Shutdown()
	deadline := time.Now().Add(2 * time.Second)
	for h.Connections() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	if err := h.SaveHistory(); err != nil {
		log.Printf("Failed to save hub history: %v", err)
	}
	if err := sink.Close(); err != nil {
		log.Printf("Failed to close audit sink: %v", err)
	}
}
