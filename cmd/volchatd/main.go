package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/volchat/internal/app"
	"github.com/matheus3301/volchat/internal/session"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	name, profile, err := session.LoadProfile(*profileFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := profile.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v (configure %s or %s)\n", err, session.ConfigPath(), session.EnvPath())
		os.Exit(1)
	}

	fx.New(
		app.Module(app.Params{ProfileName: name, Profile: profile, Console: true}),
		app.ZapEvents(),
	).Run()
}
