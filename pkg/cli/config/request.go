package config

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/odcsfetch/pkg/domain/model"
	"github.com/m-mizutani/odcsfetch/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Request holds compose URLs given on the command line or by a TOML request file
type Request struct {
	URLs []string
	File string
}

// requestFile is the TOML layout of a request file:
//
//	compose_urls = ["https://odcs.example.com/composes/odcs-1/compose/Temporary/odcs-1.repo"]
type requestFile struct {
	ComposeURLs []string `toml:"compose_urls"`
}

// Flags returns CLI flags for compose request
func (c *Request) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "url",
			Aliases:     []string{"u"},
			Usage:       "Compose URL to fetch (repeatable)",
			Destination: &c.URLs,
			Sources:     cli.EnvVars("ODCSFETCH_URLS"),
		},
		&cli.StringFlag{
			Name:        "request",
			Aliases:     []string{"r"},
			Usage:       "TOML file with compose_urls",
			Destination: &c.File,
			Sources:     cli.EnvVars("ODCSFETCH_REQUEST_FILE"),
		},
	}
}

// Build returns RequestReference. URLs from the request file come first,
// followed by URLs given by --url.
func (c *Request) Build() (model.RequestReference, error) {
	var urls []string

	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return model.RequestReference{}, goerr.Wrap(err, "failed to read request file",
				goerr.V("path", c.File),
				goerr.T(types.ErrTagInvalidRequest),
			)
		}

		var file requestFile
		if err := toml.Unmarshal(data, &file); err != nil {
			return model.RequestReference{}, goerr.Wrap(err, "failed to parse request file",
				goerr.V("path", c.File),
				goerr.T(types.ErrTagInvalidRequest),
			)
		}
		urls = append(urls, file.ComposeURLs...)
	}

	urls = append(urls, c.URLs...)

	for i, url := range urls {
		if strings.TrimSpace(url) == "" {
			return model.RequestReference{}, goerr.New("empty compose URL",
				goerr.V("index", i),
				goerr.T(types.ErrTagInvalidRequest),
			)
		}
	}

	return model.NewRequestReference(urls...), nil
}
