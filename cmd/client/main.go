package main

import (
	"fmt"

	"github.com/ametov/bookline/internal/adapter"
	"github.com/ametov/bookline/internal/client"
	"github.com/ametov/bookline/internal/config"
	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/realtime"
	"github.com/ametov/bookline/internal/service"
	"github.com/ametov/bookline/internal/store"
	"github.com/ametov/bookline/internal/tui"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("bookline-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.API, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create server adapter")
	}

	channel, err := realtime.NewChannel(cfg.Realtime, cfg.API.Address, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create realtime channel")
	}

	storages, err := store.NewClientStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	services := service.NewServices(serverAdapter, channel, storages, *cfg, log)

	ui, err := tui.New(services, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating ui")
	}

	app, err := client.NewApp(services, ui, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("client run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
