package main

import (
	"flag"
	"log"
	"net/http"

	"mighty-lite/internal/config"
	"mighty-lite/internal/hub"
	"mighty-lite/internal/room"
	"mighty-lite/internal/session"
	"mighty-lite/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Server] Failed to load config: %v", err)
	}

	storeService, storeMode, err := store.NewService(cfg.Store.Mode, cfg.Store.DSN, cfg.Store.SQLitePath)
	if err != nil {
		log.Fatalf("[Server] Failed to init store: %v", err)
	}
	defer storeService.Close()
	storeService, err = store.NewCachedService(storeService, cfg.Store.UserCacheSize)
	if err != nil {
		log.Fatalf("[Server] Failed to init user cache: %v", err)
	}

	// A zero seed leaves every game on its own entropy draw; a fixed seed
	// is for reproducing reported games.
	h := hub.New(storeService, cfg.Seed, room.Options{Seed: cfg.Seed})
	defer h.Close()
	srv := session.New(h)
	api := session.NewAPI(srv, storeService)

	mux := http.NewServeMux()
	srv.Register(mux)
	api.Register(mux)

	log.Printf("[Server] Store mode: %s", storeMode)
	log.Printf("[Server] Starting WebSocket server on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
