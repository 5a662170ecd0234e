package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/milk9111/sentinel/prefabs"
)

func main() {
	levelName := flag.String("level", "example", "level name in prefabs/levels (basename, .yaml optional) or a path to a level file")
	ticks := flag.Int("ticks", 0, "ticks to run; 0 uses the level's duration")
	realtime := flag.Bool("realtime", false, "pace ticks on the wall clock")
	watch := flag.Bool("watch", false, "rebuild the scene when prefab files change (implies -realtime)")
	script := flag.String("script", "", "scenario script in prefabs/scripts; overrides the level's script")
	noScript := flag.Bool("no-script", false, "run without a scenario script")
	debugAddr := flag.String("debug-addr", "", "serve snapshots over websocket on this address, e.g. :8090")
	streamEvery := flag.Int("stream-every", 1, "publish a snapshot every n ticks")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	logFormat := flag.String("log-format", "text", "text or json")
	list := flag.Bool("list", false, "list available levels and classes, then exit")
	flag.Parse()

	logger, err := newLogger(os.Stderr, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *list {
		if err := listPrefabs(os.Stdout); err != nil {
			logger.Error("list prefabs", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{
		level:       *levelName,
		ticks:       *ticks,
		realtime:    *realtime || *watch,
		watch:       *watch,
		script:      *script,
		noScript:    *noScript,
		debugAddr:   *debugAddr,
		streamEvery: *streamEvery,
		logger:      logger,
		out:         os.Stdout,
	}
	if err := r.run(ctx); err != nil {
		logger.Error("sentinel failed", "error", err)
		os.Exit(1)
	}
}

func listPrefabs(out *os.File) error {
	for _, dir := range []string{"levels", "classes", "cameras"} {
		names, err := prefabs.List(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s:\n", dir)
		for _, name := range names {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}
