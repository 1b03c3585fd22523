// Package session turns source descriptors into playback sessions and drives their lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tubelink/tubelink/filesystem"
	"github.com/tubelink/tubelink/metrics"
	"github.com/tubelink/tubelink/provider"
	"github.com/tubelink/tubelink/quality"
	"github.com/tubelink/tubelink/source"
)

// SourceRef names what to play. Exactly one of Asset and URI is set.
type SourceRef struct {
	// Asset is a file path relative to the asset root.
	Asset string `json:"asset,omitempty"`
	// URI is a video id, a video page url or a direct media url.
	URI string `json:"uri,omitempty"`
}

// Descriptor is a request for a playback session.
type Descriptor struct {
	Source  SourceRef    `json:"source"`
	Quality quality.Tier `json:"quality"`
	IsLive  bool         `json:"is_live"`
}

// Mode is the path a descriptor was resolved through.
type Mode string

const (
	ModeCatalog Mode = "catalog"
	ModeLive    Mode = "live"
	ModeAsset   Mode = "asset"
	ModeURI     Mode = "uri"
)

// Resolution is a resolved descriptor.
type Resolution struct {
	Mode    Mode
	VideoID string
	Source  source.PlaybackSource
	// VideoRepresentation and AudioRepresentation are the ids picked from the catalog.
	VideoRepresentation string
	AudioRepresentation string
}

// Extractor is the upstream the resolver queries.
type Extractor interface {
	Catalog(ctx context.Context, videoID string) (source.Catalog, error)
	Live(ctx context.Context, videoID string) provider.LiveManifest
}

// Resolver maps descriptors onto playback sources.
type Resolver struct {
	extractor Extractor
	assetRoot string
}

func NewResolver(extractor Extractor, assetRoot string) *Resolver {
	return &Resolver{extractor: extractor, assetRoot: assetRoot}
}

// Resolve builds the playback source of a descriptor.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor) (Resolution, error) {
	switch {
	case d.Source.Asset != "" && d.Source.URI != "":
		return Resolution{}, errors.New("descriptor names both an asset and a uri")
	case d.Source.Asset != "":
		return r.asset(d.Source.Asset)
	case d.Source.URI == "":
		return Resolution{}, errors.New("descriptor names no source")
	}

	id, err := provider.NormalizeID(d.Source.URI)
	if err != nil {
		return r.direct(d.Source.URI)
	}

	if d.IsLive {
		return r.live(ctx, id)
	}
	return r.catalog(ctx, id, d.Quality)
}

func (r *Resolver) catalog(ctx context.Context, id string, tier quality.Tier) (Resolution, error) {
	catalog, err := r.extractor.Catalog(ctx, id)
	if err != nil {
		return Resolution{}, err
	}

	videoID, depth, err := quality.SelectDepth(tier, catalog)
	if err != nil {
		return Resolution{}, err
	}
	metrics.FallbackDepth.Observe(float64(depth))

	audioID, err := quality.SelectAudio(catalog)
	if err != nil {
		return Resolution{}, err
	}

	video, _ := catalog.Get(videoID)
	audio, _ := catalog.Get(audioID)

	src, err := source.Build(video, audio)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Mode:                ModeCatalog,
		VideoID:             id,
		Source:              src,
		VideoRepresentation: videoID,
		AudioRepresentation: audioID,
	}, nil
}

// live never falls back to the catalog: a broadcast without a manifest cannot be played.
func (r *Resolver) live(ctx context.Context, id string) (Resolution, error) {
	manifest := r.extractor.Live(ctx, id)
	switch manifest.Status {
	case provider.FetchFailed:
		return Resolution{}, manifest.Err
	case provider.NotLive:
		return Resolution{}, fmt.Errorf("%w: %s has no live manifest", source.ErrExtraction, id)
	}

	kind, err := source.Classify(manifest.URL)
	if err != nil {
		return Resolution{}, err
	}
	if kind == source.DASH || kind == source.SmoothStreaming {
		return Resolution{}, fmt.Errorf("%w: multi-track live manifest (%s)", source.ErrUnsupportedContainer, kind)
	}

	rep := source.Representation{ID: "live", URL: manifest.URL, Kind: source.Video}
	src, err := source.Build(rep, rep)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{Mode: ModeLive, VideoID: id, Source: src}, nil
}

// asset resolves a path under the asset root. A local file carries every track.
func (r *Resolver) asset(name string) (Resolution, error) {
	rel := filepath.Clean(string(filepath.Separator) + name)

	exists, err := filesystem.Under(r.assetRoot).Exists(rel)
	if err != nil {
		return Resolution{}, err
	}
	if !exists {
		return Resolution{}, fmt.Errorf("%w: asset %s not found", source.ErrExtraction, name)
	}

	return Resolution{Mode: ModeAsset, Source: source.SingleManifest{URL: filepath.Join(r.assetRoot, rel)}}, nil
}

// direct plays a media url as is, once its container is recognized.
func (r *Resolver) direct(uri string) (Resolution, error) {
	u, err := url.Parse(uri)
	if err != nil || (strings.ToLower(u.Scheme) != "http" && strings.ToLower(u.Scheme) != "https") {
		return Resolution{}, fmt.Errorf("%w: %q is neither a video reference nor a media url", source.ErrUnsupportedContainer, uri)
	}

	if _, err := source.Classify(uri); err != nil {
		return Resolution{}, err
	}

	return Resolution{Mode: ModeURI, Source: source.SingleManifest{URL: uri}}, nil
}
