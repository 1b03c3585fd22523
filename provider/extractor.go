// Package provider extracts stream catalogs and live manifests from the upstream video service.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/key"
	"github.com/tubelink/tubelink/network"
	"github.com/tubelink/tubelink/source"
	"golang.org/x/sync/singleflight"
)

// Options locate the upstream endpoints and identify the client towards them.
type Options struct {
	// PlayerURL is the player API endpoint queried for the stream catalog.
	PlayerURL string
	// WatchURL is the metadata page prefix; the video id is appended to it.
	WatchURL string
	// APIKey is passed as the key query parameter when not empty.
	APIKey        string
	ClientName    string
	ClientVersion string
}

// OptionsFromConfig reads the upstream options from the global configuration.
func OptionsFromConfig() Options {
	return Options{
		PlayerURL:     viper.GetString(key.UpstreamPlayerURL),
		WatchURL:      viper.GetString(key.UpstreamWatchURL),
		APIKey:        viper.GetString(key.UpstreamAPIKey),
		ClientName:    viper.GetString(key.UpstreamClientName),
		ClientVersion: viper.GetString(key.UpstreamClientVersion),
	}
}

// Extractor fetches catalogs and live manifests. Concurrent requests for the same
// video id share one upstream round trip.
type Extractor struct {
	client  *http.Client
	options Options

	catalogs singleflight.Group
	pages    singleflight.Group
}

// New returns an extractor using the given client. A nil client uses network.Default.
func New(client *http.Client, options Options) *Extractor {
	if client == nil {
		client = network.Default()
	}
	return &Extractor{client: client, options: options}
}

// Default returns an extractor configured from the global configuration.
func Default() *Extractor {
	return New(nil, OptionsFromConfig())
}

// join runs fetch once per key for all concurrent callers. The fetch does not inherit the
// cancellation of the caller that started it: a caller whose ctx ends stops waiting with
// source.ErrNetwork while the callers that joined it still get the result.
func join[T any](ctx context.Context, group *singleflight.Group, key string, fetch func(context.Context, string) (T, error)) (T, bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := group.DoChan(key, func() (any, error) {
		return fetch(detached, key)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, false, fmt.Errorf("%w: %v", source.ErrNetwork, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Shared, r.Err
		}
		return r.Val.(T), r.Shared, nil
	}
}
