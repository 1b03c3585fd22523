package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/network"
	"github.com/tubelink/tubelink/source"
)

// LiveMarker precedes the live manifest url embedded in a metadata page.
const LiveMarker = "hlsManifestUrl"

// LiveStatus is the outcome of a live manifest lookup.
type LiveStatus int

const (
	Present LiveStatus = iota
	NotLive
	FetchFailed
)

func (s LiveStatus) String() string {
	switch s {
	case Present:
		return "present"
	case NotLive:
		return "not live"
	default:
		return "fetch failed"
	}
}

// LiveManifest is the result of Live. URL is set only when Status is Present,
// Err only when it is FetchFailed.
type LiveManifest struct {
	Status LiveStatus
	URL    string
	Err    error
}

// Live fetches the metadata page of a video and scrapes its live manifest url.
// A page without the marker is NotLive. A failed fetch is FetchFailed and is not retried.
func (e *Extractor) Live(ctx context.Context, videoID string) LiveManifest {
	page, _, err := join(ctx, &e.pages, videoID, e.fetchPage)
	if err != nil {
		log.Warnf("live page for %s: %v", videoID, err)
		return LiveManifest{Status: FetchFailed, Err: err}
	}

	manifest, ok := ScrapeLiveURL(page)
	if !ok {
		return LiveManifest{Status: NotLive}
	}

	log.Infof("live manifest found for %s", videoID)
	return LiveManifest{Status: Present, URL: manifest}
}

func (e *Extractor) fetchPage(ctx context.Context, videoID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.options.WatchURL+videoID, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: metadata page returned %s", source.ErrNetwork, resp.Status)
	}

	data, err := network.ReadBody(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}
	return string(data), nil
}

// ScrapeLiveURL extracts the url following LiveMarker in body, up to the next
// structural delimiter, with escapes and quoting artifacts removed.
func ScrapeLiveURL(body string) (string, bool) {
	i := strings.Index(body, LiveMarker)
	if i < 0 {
		return "", false
	}

	rest := body[i+len(LiveMarker):]
	if end := strings.IndexAny(rest, ",}"); end >= 0 {
		rest = rest[:end]
	}

	raw := strings.NewReplacer(`\u0026`, "&", `\/`, "/").Replace(rest)
	raw = strings.NewReplacer(`\`, "", `"`, "", "{", "", "}", "", ",", "").Replace(raw)
	raw = strings.TrimPrefix(strings.TrimSpace(raw), ":")
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return "", false
	}
	return raw, true
}
