package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"crafthub/internal/app"
	"crafthub/internal/bus"
	"crafthub/internal/config"
	"crafthub/internal/profile"
	"crafthub/internal/tui"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var (
		cfg    *config.Config
		b      *bus.Bus
		logger *zap.Logger
		stores tui.Stores
	)
	application := fx.New(
		app.Module(app.Params{ProfileName: profileName}),
		fx.Populate(&cfg, &b, &logger),
		fx.Populate(
			&stores.Sessions, &stores.Cart, &stores.Notify, &stores.Chat,
			&stores.Catalog, &stores.Orders, &stores.Reviews, &stores.Account,
		),
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ui := tui.NewApp(profileName, cfg, b, stores, logger)
	runErr := ui.Run()
	ui.Stop()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	if err := application.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
