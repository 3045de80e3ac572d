// cmd/synapse/env.go
package main

import (
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"synapse/internal/client"
	"synapse/internal/config"
	"synapse/internal/db"
	"synapse/internal/logging"
	"synapse/internal/session"
	"synapse/internal/stream"
)

// env is the wiring shared by every command
type env struct {
	cfg     *config.Config
	client  *client.Client
	store   *db.Store
	session *session.Session
	logs    io.Closer
}

// newEnv loads config, sets up logging and connects the client and cache.
// console routes logs to stderr instead of the log file.
func newEnv(c *cli.Context, console bool) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if url := c.String("server"); url != "" {
		cfg.Server.BaseURL = url
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	logs, err := logging.Setup(cfg.Logging, console)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:  cfg,
		logs: logs,
		client: client.New(cfg.Server.BaseURL, client.Options{
			Retry:          retryConfig(cfg.Retry),
			RequestTimeout: cfg.RequestTimeout(),
		}),
	}

	opts := session.Options{
		Consumer: &stream.Consumer{IdleTimeout: cfg.StreamIdleTimeout()},
		Layout:   cfg.Layout,
	}
	if cfg.Cache.Enabled {
		var store *db.Store
		if cfg.Cache.Path != "" {
			store, err = db.OpenPath(cfg.Cache.Path)
		} else {
			store, err = db.Open()
		}
		if err != nil {
			// reading offline is optional; the backend still works
			log.Warn().Err(err).Msg("conversation cache unavailable")
		} else {
			e.store = store
			opts.Cache = store
		}
	}
	e.session = session.New(e.client, opts)

	log.Debug().
		Str("server", cfg.Server.BaseURL).
		Bool("cache", e.store != nil).
		Msg("synapse started")
	return e, nil
}

func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			log.Warn().Err(err).Msg("close cache")
		}
	}
	e.logs.Close()
}

func retryConfig(rc config.RetryConfig) client.RetryConfig {
	return client.RetryConfig{
		MaxAttempts: rc.Attempts,
		BaseDelay:   time.Duration(rc.Delay) * time.Millisecond,
		MaxDelay:    time.Duration(rc.MaxDelay) * time.Millisecond,
	}
}
