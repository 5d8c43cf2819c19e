// Command sessionengine is a minimal host for the session engine: it
// loads signaling credentials from the environment, brings up a
// session, logs delegate events (stats only at Debug level, which the
// Info-level handler set up here does not print), and tears down cleanly on
// SIGINT/SIGTERM. Mirrors the shape of the teacher's cmd/vicostream
// main (ticket → peer → viewer → signal → connect → wait for
// shutdown), generalized to the engine's own construction sequence.
package main

import (
	"context"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"vico_home/sessionengine/internal/config"
	"vico_home/sessionengine/internal/connectivity"
	"vico_home/sessionengine/internal/domain"
	"vico_home/sessionengine/internal/engine"
	"vico_home/sessionengine/internal/rtctransport"
	"vico_home/sessionengine/internal/signal"
)

// loggingDelegate satisfies domain.Delegate by logging each event,
// the demo host's stand-in for whatever room/participant object model
// a real application layer would maintain.
type loggingDelegate struct {
	logger *slog.Logger
}

func (d *loggingDelegate) OnConnectionStateChanged(old, new domain.ConnectionState) {
	d.logger.Info("connection state changed", "from", old, "to", new)
}

func (d *loggingDelegate) OnDataChannelStateChanged(ch domain.DataChannel, state domain.DataChannelState) {
	d.logger.Info("data channel state changed", "label", ch.Label(), "state", state)
}

func (d *loggingDelegate) OnTrackAdded(track domain.MediaTrack, streams []domain.MediaStream) {
	d.logger.Info("track added", "id", track.ID(), "kind", track.Kind())
}

func (d *loggingDelegate) OnTrackRemoved(track domain.MediaTrack) {
	d.logger.Info("track removed", "id", track.ID())
}

func (d *loggingDelegate) OnUserPacket(p domain.UserPacket) {
	d.logger.Info("user packet", "from", p.ParticipantIdentity, "topic", p.Topic, "bytes", len(p.Payload))
}

func (d *loggingDelegate) OnSpeakersUpdate(speakers []domain.Speaker) {
	d.logger.Info("speakers update", "count", len(speakers))
}

func (d *loggingDelegate) OnStats(stats domain.Stats, target domain.SignalTarget) {
	d.logger.Debug("stats", "target", target)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	poller := connectivity.New(5 * time.Second)
	signalClient := signal.New(logger)

	factory := func(rtc domain.RTCConfiguration, target domain.SignalTarget, primary bool, reportStats bool, delegate domain.TransportDelegate) (domain.Transport, error) {
		return rtctransport.New(rtctransport.Params{
			RTC:         rtc,
			Target:      target,
			Primary:     primary,
			Delegate:    delegate,
			ReportStats: reportStats,
			Logger:      logger,
		})
	}

	engineConfig := domain.EngineConfig{
		Connect: domain.ConnectOptions{
			RTC:           domain.RTCConfiguration{},
			AutoSubscribe: true,
		},
		Room: domain.RoomOptions{ReportStats: true},
	}

	eng := engine.New(engineConfig, domain.DefaultTimeouts(), signalClient, poller, factory, logger)
	eng.AddDelegate(&loggingDelegate{logger: logger})

	logger.Info("connecting", "url", cfg.URL)
	if err := eng.Connect(ctx, cfg.URL, cfg.Token); err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected")

	<-ctx.Done()
	logger.Info("shutting down")
	eng.Close()
	logger.Info("done")
}
