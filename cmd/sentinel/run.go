package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/milk9111/sentinel/debugstream"
	"github.com/milk9111/sentinel/prefabs"
	"github.com/milk9111/sentinel/scenario"
	"github.com/milk9111/sentinel/sim"
)

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid -log-format %q: want text or json", format)
	}
}

type runner struct {
	level       string
	ticks       int
	realtime    bool
	watch       bool
	script      string
	noScript    bool
	debugAddr   string
	streamEvery int
	logger      *slog.Logger
	out         io.Writer

	stream *debugstream.Server
}

// scene builds the world for the configured level and wires the scenario
// script and debug stream into its tick pipeline.
func (r *runner) scene() (*sim.World, *scenario.Runtime, error) {
	w, err := sim.Load(r.level, r.logger)
	if err != nil {
		return nil, nil, err
	}

	var rt *scenario.Runtime
	name := w.Settings.Script
	if r.script != "" {
		name = r.script
	}
	if name != "" && !r.noScript {
		rt, err = scenario.Load(name, r.logger)
		if err != nil {
			return nil, nil, err
		}
		w.Scheduler().Prepend(rt)
	}
	if r.stream != nil {
		w.Scheduler().Add(debugstream.System{Server: r.stream, Every: r.streamEvery})
	}
	return w, rt, nil
}

func (r *runner) run(ctx context.Context) error {
	if r.debugAddr != "" {
		r.stream = debugstream.NewServer(r.logger)
		mux := http.NewServeMux()
		mux.Handle("/ws", r.stream)
		srv := &http.Server{Addr: r.debugAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error("debug stream server", "error", err)
			}
		}()
		defer func() {
			r.stream.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		r.logger.Info("debug stream listening", "addr", r.debugAddr, "path", "/ws")
	}

	w, _, err := r.scene()
	if err != nil {
		return err
	}

	limit := r.ticks
	if limit <= 0 {
		limit = w.Settings.Ticks()
	}

	if !r.realtime {
		if limit <= 0 {
			return fmt.Errorf("level %s has no duration; pass -ticks or -realtime", w.Name)
		}
		for i := 0; i < limit; i++ {
			if ctx.Err() != nil {
				break
			}
			w.Step(w.Settings.DT())
		}
		r.report(w)
		return nil
	}

	w, err = r.realtimeLoop(ctx, w, limit)
	if err != nil {
		return err
	}
	r.report(w)
	return nil
}

// realtimeLoop paces ticks on a ticker. With watching on, a changed prefab
// file rebuilds the scene from scratch; a rebuild that fails keeps the old
// scene running.
func (r *runner) realtimeLoop(ctx context.Context, w *sim.World, limit int) (*sim.World, error) {
	var events <-chan string
	var errs <-chan error
	if r.watch {
		dirs := prefabs.WatchDirs()
		if len(dirs) == 0 {
			r.logger.Warn("nothing to watch", "root", prefabs.DiskRoot)
		} else {
			watcher, err := prefabs.NewWatcher(dirs...)
			if err != nil {
				return w, fmt.Errorf("watch prefabs: %w", err)
			}
			defer watcher.Close()
			events, errs = watcher.Events, watcher.Errors
			r.logger.Info("watching prefabs", "dirs", dirs)
		}
	}

	ticker := time.NewTicker(time.Duration(w.Settings.DT() * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return w, nil
		case <-ticker.C:
			w.Step(w.Settings.DT())
			if limit > 0 && int(w.Tick()) >= limit {
				return w, nil
			}
		case path, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			next, _, err := r.scene()
			if err != nil {
				r.logger.Error("reload failed", "file", path, "error", err)
				continue
			}
			r.logger.Info("scene reloaded", "file", path)
			w = next
			ticker.Reset(time.Duration(w.Settings.DT() * float64(time.Second)))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Warn("watcher error", "error", err)
		}
	}
}

func (r *runner) report(w *sim.World) {
	fmt.Fprintf(r.out, "level %s: %d ticks, %.2fs, %d alerts\n", w.Name, w.Tick(), w.Elapsed(), w.Bus.Published())
	for _, t := range w.Transitions() {
		fmt.Fprintln(r.out, t.String())
	}
	for _, a := range w.Agents() {
		fmt.Fprintf(r.out, "%s: %s hp=%d shots=%d\n", a.Name, a.State(), a.Health().CurrentHP(), a.Shots())
	}
	for _, c := range w.Cameras() {
		fmt.Fprintf(r.out, "%s: active=%t yaw=%.1f detections=%d\n", c.Name, c.Active(), c.Yaw(), c.Detections())
	}
	if w.Player != nil {
		fmt.Fprintf(r.out, "%s: hp=%d hits_taken=%d\n", w.Player.Name, w.Player.HP().CurrentHP(), len(w.Hits()))
	}
}
