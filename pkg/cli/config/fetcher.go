package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/odcsfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/odcsfetch/pkg/infra/safehttp"
	"github.com/m-mizutani/odcsfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Fetcher holds compose fetcher configuration
type Fetcher struct {
	ComposeDir          string
	Timeout             time.Duration
	AllowPrivateNetwork bool
}

// Flags returns CLI flags for compose fetcher configuration
func (c *Fetcher) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "compose-dir",
			Usage:       "Directory to store fetched compose files (created if missing)",
			Required:    true,
			Destination: &c.ComposeDir,
			Sources:     cli.EnvVars("ODCSFETCH_COMPOSE_DIR"),
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Timeout for each compose download",
			Value:       usecase.DefaultFetchTimeout,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("ODCSFETCH_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:        "allow-private-network",
			Usage:       "Allow fetching from loopback and private addresses",
			Value:       false,
			Destination: &c.AllowPrivateNetwork,
			Sources:     cli.EnvVars("ODCSFETCH_ALLOW_PRIVATE_NETWORK"),
		},
	}
}

// Configure builds a ComposeFetcher backed by the network safety client
func (c *Fetcher) Configure() (interfaces.ComposeFetcher, error) {
	if c.ComposeDir == "" {
		return nil, goerr.New("compose directory is required")
	}
	if c.Timeout <= 0 {
		return nil, goerr.New("timeout must be positive", goerr.V("timeout", c.Timeout))
	}

	client := safehttp.NewClient(
		safehttp.WithTimeout(c.Timeout),
		safehttp.WithAllowPrivateNetwork(c.AllowPrivateNetwork),
	)

	return usecase.NewComposeFetcher(client, c.ComposeDir,
		usecase.WithFetchTimeout(c.Timeout),
	), nil
}
