package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arxivdigest/internal/app"
	"arxivdigest/internal/config"
	logx "arxivdigest/pkg/logx"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: arxivdigest [flags] [run|serve]

  run    process pending Telegram messages once and exit (default)
  serve  run passes on serve.schedule until interrupted

flags:
`)
	flag.PrintDefaults()
}

func main() {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", "", "path to config yaml/json (optional; env alone is enough)")
	flag.StringVar(&envPath, "env", ".env", "dotenv file loaded before reading the environment")
	flag.Usage = usage
	flag.Parse()

	mode := "run"
	if flag.NArg() > 0 {
		mode = flag.Arg(0)
	}
	if mode != "run" && mode != "serve" {
		usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(envPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(config.NewManager(cfgPath))
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer a.Close()
	log := a.Logger()

	switch mode {
	case "serve":
		if err := a.Serve(ctx); err != nil {
			log.Error("serve stopped", logx.Err(err))
			_ = a.Close()
			os.Exit(1)
		}
	default:
		rep, err := a.RunOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("pass failed", logx.String("run_id", rep.RunID), logx.Err(err))
			_ = a.Close()
			os.Exit(1)
		}
		log.Info("pass finished",
			logx.String("run_id", rep.RunID),
			logx.Int("seen", rep.Seen),
			logx.Int("processed", rep.Processed),
			logx.Int("duplicates", rep.Duplicates),
			logx.Int("failed", rep.Failed),
		)
	}
}
