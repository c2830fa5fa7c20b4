// Package main is the entry point for the Apex Kudos REST backend.
//
// The main package stays minimal: read configuration, create the logger,
// hand both to internal/server, and block in Start.
//
// Usage:
//
//	kudos-api -config kudos.yaml
//	JWT_SECRET=$(openssl rand -hex 32) DB_PATH=/var/lib/kudos/kudos.db kudos-api
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/apexkudos/kudos/internal/config"
	"github.com/apexkudos/kudos/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	// === 1. CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := cfg.Log.NewLogger()

	// === 3. SIGNING SECRET ===
	// Without a configured secret, tokens are signed with a per-process key
	// and stop validating on restart.
	if cfg.API.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			logger.Error("failed to generate JWT secret", slog.String("error", err.Error()))
			os.Exit(1)
		}
		cfg.API.JWTSecret = secret
		logger.Warn("JWT_SECRET not set; using a random secret, sessions end when the server restarts")
	}

	// === 4. DATABASE DIRECTORY ===
	if cfg.API.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.API.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(context.Background(), cfg.API, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
