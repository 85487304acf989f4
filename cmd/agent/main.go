// File: cmd/agent/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process entrypoint for one RTC agent instance: loads configuration,
// wires the ambient observability stack, builds the transport handles and
// the agent's component graph, pins the run-loop thread, and drives
// on_start/do_work/on_close to termination.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/momentics/rtc-agent/fake"
	"github.com/momentics/rtc-agent/internal/affinity"
	"github.com/momentics/rtc-agent/internal/agent"
	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/momentics/rtc-agent/internal/concurrency"
	"github.com/momentics/rtc-agent/internal/config"
	"github.com/momentics/rtc-agent/internal/control"
	"github.com/momentics/rtc-agent/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rtc-agent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	overlayPath := flag.String("config", "", "path to an optional YAML config overlay")
	cpuCore := flag.Int("cpu-core", -1, "logical CPU core to pin the run loop to (-1 disables affinity)")
	flag.Parse()

	overlay, err := config.LoadOverlay(*overlayPath)
	if err != nil {
		return fmt.Errorf("loading config overlay: %w", err)
	}
	cfg, err := config.Load(overlay)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := telemetry.NewConsoleLogger(cfg.LogLevel, cfg.Name, cfg.NodeID)
	tracer := telemetry.NewTracer(logger, cfg.Name)
	metrics := telemetry.NewMetrics(cfg.Name)

	loop := concurrency.NewEventLoop(64, 4096)
	loop.RegisterHandler(telemetry.NewLogSink(logger))
	go loop.Run()
	defer loop.Stop()

	facade := control.NewFacade()
	control.RegisterPlatformProbes(facade.Probes)
	_ = facade.SetConfig(map[string]any{
		"name":                cfg.Name,
		"node_id":             cfg.NodeID,
		"heartbeat_period_ns": cfg.HeartbeatPeriodNs,
		"log_level":           cfg.LogLevel,
	})
	facade.OnReload(func() {
		loop.Push(telemetry.LogEvent{Level: zerolog.InfoLevel, Message: "control config reloaded"})
	})
	comms := buildTransport(cfg)

	a := agent.New(cfg, comms, metrics)
	facade.Probes.RegisterProbe("agent.state", func() any { return a.Current() })
	facade.Probes.RegisterProbe("agent.name", func() any { return a.Name() })
	facade.Probes.RegisterProbe("agent.stats", func() any { return a.LastStats() })
	facade.Probes.RegisterProbe("agent.info", func() any { return a.Info() })
	facade.Probes.RegisterProbe("agent.last_error", func() any { return a.LastError() })

	var httpSrv *http.Server
	if cfg.MetricsAddr != "" {
		httpSrv = startDebugServer(cfg.MetricsAddr, facade, metrics, loop)
	}

	if err := a.OnStart(); err != nil {
		return fmt.Errorf("agent on_start: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	stopCh := make(chan struct{})
	go func() {
		<-sigCh
		loop.Push(telemetry.LogEvent{Level: zerolog.InfoLevel, Message: "signal received, shutting down"})
		close(stopCh)
	}()

	runErr := runLoop(a, tracer, loop, facade, *cpuCore, stopCh)

	if err := a.OnClose(); err != nil && runErr == nil {
		runErr = err
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		loop.Push(telemetry.LogEvent{Level: zerolog.WarnLevel, Message: "tracer shutdown failed", Fields: map[string]any{"error": err.Error()}})
	}
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}
	return runErr
}

// runLoop pins the calling goroutine's OS thread (spec §4.10 host run loop)
// and drives do_work to termination or an external stop signal, applying
// an exponential back-off idle strategy when a tick does no work.
func runLoop(a *agent.Agent, tracer *telemetry.Tracer, loop *concurrency.EventLoop, facade *control.Facade, cpuCore int, stopCh <-chan struct{}) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if cpuCore >= 0 {
		if err := affinity.SetAffinity(cpuCore); err != nil {
			loop.Push(telemetry.LogEvent{Level: zerolog.WarnLevel, Message: "cpu affinity unavailable", Fields: map[string]any{"error": err.Error(), "core": cpuCore}})
		}
	}

	idle := time.Nanosecond
	const maxIdle = time.Millisecond
	var tick int64

	for {
		select {
		case <-stopCh:
			return nil
		default:
		}

		_, span := tracer.StartTick(context.Background(), tick)
		n, err := a.DoWork()
		span.End()
		tick++

		if err != nil {
			if agenterrors.IsTermination(err) {
				return nil
			}
			loop.Push(telemetry.LogEvent{Level: zerolog.ErrorLevel, Message: "do_work error", Fields: map[string]any{"error": err.Error()}})
			a.OnError(err)
			continue
		}

		facade.Metrics.Set("last_tick_work", n)
		facade.Metrics.Set("ticks_total", tick)

		if n == 0 {
			time.Sleep(idle)
			idle *= 2
			if idle > maxIdle {
				idle = maxIdle
			}
		} else {
			idle = time.Nanosecond
		}
	}
}

// buildTransport wires the bundled in-process transport as this binary's
// CommunicationResources. The real fleet's shared-memory/UDP fabric is an
// external collaborator (spec §1 Out of scope) with no concrete driver in
// this codebase's dependency corpus; operators embedding this agent in a
// real fleet supply their own api.Publication/api.Subscription
// implementations through the same CommunicationResources seam instead of
// this function.
func buildTransport(cfg *config.Config) agent.CommunicationResources {
	comms := agent.CommunicationResources{
		StatusPub:  fake.NewPublication(),
		ControlSub: fake.NewSubscription(),
	}
	for range cfg.SubData {
		comms.SubData = append(comms.SubData, fake.NewSubscription())
	}
	for range cfg.PubData {
		comms.PubData = append(comms.PubData, fake.NewPublication())
	}
	return comms
}

// startDebugServer exposes /metrics (prometheus) and /debugz (control.Facade
// state dump) on addr, running on its own goroutine that only ever touches
// the already mutex-protected control.Facade and telemetry.Metrics
// registries, never the agent's single-threaded state directly.
func startDebugServer(addr string, facade *control.Facade, metrics *telemetry.Metrics, loop *concurrency.EventLoop) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debugz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%+v\n", facade.DumpState())
	})
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%+v\n", facade.GetConfig())
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%+v\n", facade.Stats())
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loop.Push(telemetry.LogEvent{Level: zerolog.ErrorLevel, Message: "debug server stopped", Fields: map[string]any{"error": err.Error()}})
		}
	}()
	return srv
}
