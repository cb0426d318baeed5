package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-talk/core"
	"github.com/koscakluka/ema-talk/internal/config"
)

var configPath = flag.String("config", "ema-talk.yaml", "Path to the YAML configuration file")

func main() {
	flag.Parse()

	if flag.Arg(0) == "schema" {
		schema, err := config.Schema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(schema))
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := setupTracing(cfg.Telemetry.TraceFile)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush traces: %v\n", err)
		}
	}()

	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to release devices: %v\n", err)
		}
	}()

	relay := &eventRelay{}
	o := orchestration.NewOrchestrator(append(c.options, orchestration.WithEventHandler(relay.handle))...)
	defer o.Close()

	p := tea.NewProgram(newModel(ctx, o), tea.WithAltScreen(), tea.WithContext(ctx))
	relay.attach(p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	return nil
}
