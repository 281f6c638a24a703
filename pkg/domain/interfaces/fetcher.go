package interfaces

import (
	"context"
	"net/http"

	"github.com/m-mizutani/odcsfetch/pkg/domain/model"
)

// HTTPClient sends HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ComposeFetcher fetches compose files and stores them locally
type ComposeFetcher interface {
	// Fetch downloads every compose URL of req into the compose directory
	Fetch(ctx context.Context, req model.RequestReference) (model.ResultReference, error)
}
