package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	corebootstrap "github.com/m3rciful/vidbot/core/bootstrap"
	corecmd "github.com/m3rciful/vidbot/core/cmd"
	coreconfig "github.com/m3rciful/vidbot/core/config"
	"github.com/m3rciful/vidbot/internal/bot"
	appconfig "github.com/m3rciful/vidbot/internal/config"
	"github.com/m3rciful/vidbot/internal/journal"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return appconfig.Load(path)
		},
		Bootstrap: bootstrap,
	})
	if err == nil {
		return
	}

	var missing *coreconfig.MissingError
	if errors.As(err, &missing) {
		fmt.Fprintln(os.Stderr, "Please set the following environment variables:")
		for _, key := range missing.Keys {
			fmt.Fprintf(os.Stderr, "- %s\n", key)
		}
		os.Exit(1)
	}
	log.Fatal(err)
}

func bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*appconfig.Config)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}
	res, err := corebootstrap.Run(ctx, corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	var j journal.Journal
	if res.DB != nil {
		j = journal.NewPostgres(res.DB)
	} else {
		j = journal.NewMemory(journal.DefaultCapacity)
	}
	return bot.New(cfg, j)
}
