package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundwave/internal/notify"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// newBroker builds the broker named by cfg.Broker.
func newBroker(cfg shared.NotificationsConfig, logger *log.Logger) (notify.Broker, error) {
	switch cfg.Broker {
	case shared.BrokerSTOMP, "":
		return notify.NewStompBroker(cfg.URL, cfg.Heartbeat(), logger), nil
	case shared.BrokerMQTT:
		return notify.NewMQTTBroker(cfg.URL, cfg.Heartbeat(), logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown broker %q", shared.ErrInvalidFlag, cfg.Broker)
	}
}

// newChannel builds the live channel from config. The caller starts and stops it.
func (r *Runner) newChannel(cfg shared.NotificationsConfig, opts notify.ChannelOpts) (*notify.Channel, error) {
	logger := shared.WithLogger(r.logger, "component", "notify")

	broker, err := newBroker(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts.Broker = broker
	opts.Topic = cfg.Topic
	opts.ReconnectDelay = cfg.ReconnectDelay()
	opts.Logger = logger
	if opts.Slot == nil {
		opts.Slot = notify.NewSlot(cfg.Dwell(), nil)
	}
	return notify.NewChannel(opts)
}

// Listen prints every message published on the new album topic until interrupted.
func (r *Runner) Listen(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Notifications
	if v := cmd.String("broker"); v != "" {
		cfg.Broker = v
	}
	if v := cmd.String("url"); v != "" {
		cfg.URL = v
	}
	if v := cmd.String("topic"); v != "" {
		cfg.Topic = v
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch, err := r.newChannel(cfg, notify.ChannelOpts{
		OnMessage: func(m notify.Message) {
			r.writePlain("[%s] 💿 %s\n", m.ReceivedAt.Format("15:04:05"), string(m.Body))
		},
		OnState: func(s notify.State) {
			r.logger.Debug("channel state", "state", s)
		},
	})
	if err != nil {
		return err
	}

	r.logger.Info("listening for notifications", "broker", cfg.Broker, "url", cfg.URL, "topic", cfg.Topic)
	r.writePlain("Listening on %s (Ctrl+C to stop)\n", cfg.Topic)

	ch.Start(ctx)
	<-ctx.Done()
	ch.Stop()

	r.writePlain("Stopped listening\n")
	return nil
}
