package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/volchat/internal/app"
	"github.com/matheus3301/volchat/internal/core"
	"github.com/matheus3301/volchat/internal/lock"
	"github.com/matheus3301/volchat/internal/session"
	"github.com/matheus3301/volchat/internal/tui"
	"go.uber.org/fx"
)

const startStopTimeout = 15 * time.Second

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	if err := run(*profileFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(profileFlag string) error {
	name, profile, err := session.LoadProfile(profileFlag)
	if err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w (configure %s or %s)", err, session.ConfigPath(), session.EnvPath())
	}

	var c *core.Core
	fxApp := fx.New(
		app.Module(app.Params{ProfileName: name, Profile: profile}),
		app.ZapEvents(),
		fx.Populate(&c),
	)
	if err := fxApp.Err(); err != nil {
		var held *lock.LockHeldError
		if errors.As(err, &held) {
			return fmt.Errorf("profile %q is already running (pid %d); use volchatctl to talk to it", name, held.PID)
		}
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startStopTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return err
	}

	runErr := tui.NewApp(c, name).Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), startStopTimeout)
	defer stopCancel()
	return errors.Join(runErr, fxApp.Stop(stopCtx))
}
