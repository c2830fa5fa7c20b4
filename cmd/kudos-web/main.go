// Package main is the entry point for the Apex Kudos web client.
//
// Usage:
//
//	kudos-web -config kudos.yaml
//	API_BASE_URL=http://kudos-api:8000 KUDOS_WEB_PORT=8080 kudos-web
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/apexkudos/kudos/internal/config"
	"github.com/apexkudos/kudos/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger()

	srv, err := web.New(cfg.Web, logger)
	if err != nil {
		logger.Error("failed to create web server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
