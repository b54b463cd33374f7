package cmd

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"LiveChartBoard/internal/broadcast"
	"LiveChartBoard/internal/config"
)

// newTransport connects the configured broadcast transport.
func newTransport(ctx context.Context, c *config.Config) (broadcast.Transport, error) {
	switch c.Transport.Kind {
	case config.TransportMemory:
		log.Warn("memory transport only reaches viewers inside this process")
		return broadcast.NewMemoryHub(), nil

	case config.TransportWebsocket:
		t := broadcast.NewWebsocketTransport(c.Transport.URL)
		if err := t.Connect(ctx); err != nil {
			return nil, err
		}
		return t, nil

	case config.TransportRedis:
		client := broadcast.NewRedisClient(c.Redis.Host, c.Redis.Port, c.Redis.Password, c.Redis.DB)
		t := broadcast.NewRedisTransport(client, "livechartboard")
		if err := t.Ping(ctx); err != nil {
			_ = t.Close()
			return nil, errors.Wrapf(err, "unable to reach redis at %s:%s", c.Redis.Host, c.Redis.Port)
		}
		return t, nil
	}
	return nil, errors.Errorf("unknown transport kind %q", c.Transport.Kind)
}
