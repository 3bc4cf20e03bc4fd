package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jrsteele09/attendance-client/apiclient"
	"github.com/jrsteele09/attendance-client/app"
	"github.com/jrsteele09/attendance-client/internal/config"
	"github.com/jrsteele09/attendance-client/sessions"
	"github.com/jrsteele09/attendance-client/token"
	"github.com/jrsteele09/attendance-client/token/filestore"
	"github.com/jrsteele09/attendance-client/token/redisstore"
	tokenfakerepo "github.com/jrsteele09/attendance-client/token/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// cli is the wired application behind the command line.
type cli struct {
	config   config.Config
	out      io.Writer
	registry *prometheus.Registry
	store    token.Store
	client   *apiclient.Client
	sessions *sessions.Manager
}

func newCLI(ctx context.Context, c config.Config, out io.Writer) (*cli, error) {
	origin, err := token.OriginKey(c.GetBaseURL())
	if err != nil {
		return nil, err
	}
	store, err := newTokenStore(c, origin)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	client, err := apiclient.New(c.GetBaseURL(), store, apiclient.Options{
		Timeout:    c.GetRequestTimeout(),
		Registerer: registry,
	})
	if err != nil {
		return nil, err
	}

	opts := sessions.Options{ClockSkew: c.GetClockSkew()}
	if url := c.GetJWKSURL(); url != "" {
		opts.Verifier = token.NewRemoteVerifier(ctx, url)
	}

	return &cli{
		config:   c,
		out:      out,
		registry: registry,
		store:    store,
		client:   client,
		sessions: sessions.NewManager(store, client, opts),
	}, nil
}

func newTokenStore(c config.StorageConfig, origin string) (token.Store, error) {
	switch c.GetStoreDriver() {
	case config.StoreMemory:
		return tokenfakerepo.NewFakeTokenStore(), nil
	case config.StoreRedis:
		client := redisstore.NewClient(redisstore.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
			Timeout:  c.GetRedisTimeout(),
		})
		return redisstore.New(client, origin, c.GetRedisTimeout())
	case config.StoreFile:
		return filestore.New(c.GetDataFolder(), origin, c.GetStoreKey())
	}
	return nil, fmt.Errorf("[newTokenStore] unknown store driver %q", c.GetStoreDriver())
}

func (c *cli) app(course int64, day time.Time) *app.App {
	return app.New(c.sessions, c.client, app.Options{Title: c.config.GetAppName(), FacultyCourse: course, FacultyDate: day})
}

// writeMetrics dumps the client metrics for a textfile collector.
func (c *cli) writeMetrics() {
	path := c.config.GetMetricsFile()
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		log.Err(err).Str("path", path).Msg("failed to write metrics file")
	}
}
