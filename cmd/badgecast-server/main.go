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

	"github.com/ivlev/badgecast/internal/analyzer"
	"github.com/ivlev/badgecast/internal/asset"
	"github.com/ivlev/badgecast/internal/config"
	"github.com/ivlev/badgecast/internal/engine"
	"github.com/ivlev/badgecast/internal/fonts"
	"github.com/ivlev/badgecast/internal/server"
	"github.com/ivlev/badgecast/internal/system"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[!] .env file not found, using process environment")
	}
	system.InitResourceLimits()

	cfg, err := config.Load(os.Getenv("BADGECAST_CONFIG"))
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}
	if addr := os.Getenv("BADGECAST_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	secret := os.Getenv("BADGECAST_JWT_SECRET")
	if secret == "" {
		log.Fatalf("[-] BADGECAST_JWT_SECRET is not set")
	}
	if err := os.MkdirAll(cfg.Server.OutputDir, 0755); err != nil {
		log.Fatalf("[-] Cannot create output dir: %v", err)
	}

	lib := fonts.NewLibrary()
	for _, f := range cfg.Fonts {
		if err := lib.RegisterFile(f.Family, f.Weight, f.Path); err != nil {
			log.Printf("[!] %v", err)
		}
	}

	detector, err := analyzer.NewDetector(cfg.Detector)
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}

	srv := server.New(cfg, []byte(secret), engine.Deps{Assets: asset.NewDefaultLoader(), Fonts: lib, Detector: detector})
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("[*] Share media server listening on %s (%s)", cfg.Server.Addr, system.CollectHostStats())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[-] Could not start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[*] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[!] Shutdown error: %v", err)
	}
}
