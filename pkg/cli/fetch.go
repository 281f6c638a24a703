package cli

import (
	"context"
	"log/slog"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/odcsfetch/pkg/cli/config"
	"github.com/m-mizutani/odcsfetch/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdFetch() *cli.Command {
	var (
		fetcherCfg config.Fetcher
		requestCfg config.Request
	)

	flags := append(fetcherCfg.Flags(), requestCfg.Flags()...)

	return &cli.Command{
		Name:    "fetch",
		Aliases: []string{"f"},
		Usage:   "Download compose files into compose directory",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			req, err := requestCfg.Build()
			if err != nil {
				return err
			}

			fetcher, err := fetcherCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure compose fetcher")
			}

			logger.Debug("Starting compose fetch",
				slog.String("compose_dir", fetcherCfg.ComposeDir),
				slog.Any("urls", req.ComposeURLs()),
			)

			result, err := fetcher.Fetch(ctx, req)
			if err != nil {
				return goerr.Wrap(err, "failed to fetch compose")
			}

			// Only the directory is printed so that the output can be consumed by scripts
			if _, err := color.New(color.FgGreen).Fprintln(c.Root().Writer, result.ComposeDirPath()); err != nil {
				return goerr.Wrap(err, "failed to write result")
			}

			return nil
		},
	}
}
