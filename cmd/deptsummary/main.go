package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	goversion "github.com/caarlos0/go-version"

	"github.com/yungbote/deptsummary/internal/deptsummary/app"
	"github.com/yungbote/deptsummary/internal/deptsummary/config"
	"github.com/yungbote/deptsummary/internal/platform/shutdown"
)

const (
	application = "deptsummary"
	description = "Summarize users by department: gender counts, hair colours, postal codes, age range"
	website     = "https://github.com/yungbote/deptsummary"
)

var (
	version   = "0.1.0"
	commit    = ""
	treeState = ""
	date      = ""
	builtBy   = ""

	configPath = flag.String("config", "", "Path to a YAML or JSON config file.")
	format     = flag.String("format", "", "Report format: json or text. Overrides config.")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] [run|serve|version]\n", application)
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd := "run"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}
	if cmd == "version" {
		fmt.Println(buildVersion().String())
		return
	}
	if cmd != "run" && cmd != "serve" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx, cfg, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "serve":
		err = a.Serve(ctx)
	default:
		err = a.RunOnce(ctx, os.Stdout)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err != nil {
		a.Log.Error("fetch or summarize users failed", "command", cmd, "error", err)
		a.Close(closeCtx)
		os.Exit(1)
	}
	a.Close(closeCtx)
}

func buildVersion() goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails(application, description, website),
		func(i *goversion.Info) {
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}
