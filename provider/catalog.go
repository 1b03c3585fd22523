package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/network"
	"github.com/tubelink/tubelink/quality"
	"github.com/tubelink/tubelink/source"
)

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl"`
		} `json:"client"`
	} `json:"context"`
	VideoID        string `json:"videoId"`
	ContentCheckOK bool   `json:"contentCheckOk"`
	RacyCheckOK    bool   `json:"racyCheckOk"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData struct {
		AdaptiveFormats []format `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type format struct {
	Itag            int    `json:"itag"`
	URL             string `json:"url"`
	MimeType        string `json:"mimeType"`
	SignatureCipher string `json:"signatureCipher"`
}

// Catalog queries the player API for the representations of a video.
//
// The catalog always holds the baseline audio and the baseline video representation;
// a response without them fails with source.ErrExtraction. Transport failures and
// non-success statuses fail with source.ErrNetwork.
func (e *Extractor) Catalog(ctx context.Context, videoID string) (source.Catalog, error) {
	catalog, shared, err := join(ctx, &e.catalogs, videoID, e.fetchCatalog)
	if err != nil {
		return source.Catalog{}, err
	}
	if shared {
		log.Debugf("catalog for %s shared with a concurrent request", videoID)
	}
	return catalog, nil
}

func (e *Extractor) fetchCatalog(ctx context.Context, videoID string) (source.Catalog, error) {
	var body playerRequest
	body.Context.Client.ClientName = e.options.ClientName
	body.Context.Client.ClientVersion = e.options.ClientVersion
	body.Context.Client.HL = "en"
	body.VideoID = videoID
	body.ContentCheckOK = true
	body.RacyCheckOK = true

	payload, err := json.Marshal(body)
	if err != nil {
		return source.Catalog{}, err
	}

	endpoint, err := url.Parse(e.options.PlayerURL)
	if err != nil {
		return source.Catalog{}, fmt.Errorf("%w: player url: %v", source.ErrExtraction, err)
	}
	if e.options.APIKey != "" {
		query := endpoint.Query()
		query.Set("key", e.options.APIKey)
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return source.Catalog{}, fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Infof("fetching catalog for %s", videoID)
	resp, err := e.client.Do(req)
	if err != nil {
		return source.Catalog{}, fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return source.Catalog{}, fmt.Errorf("%w: player api returned %s", source.ErrNetwork, resp.Status)
	}

	data, err := network.ReadBody(resp)
	if err != nil {
		return source.Catalog{}, fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}

	var parsed playerResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return source.Catalog{}, fmt.Errorf("%w: decode player response: %v", source.ErrExtraction, err)
	}

	if status := parsed.PlayabilityStatus.Status; status != "" && status != "OK" {
		return source.Catalog{}, fmt.Errorf("%w: %s %s", source.ErrExtraction, strings.ToLower(status), parsed.PlayabilityStatus.Reason)
	}

	catalog := source.NewCatalog(lo.FilterMap(parsed.StreamingData.AdaptiveFormats, toRepresentation)...)

	for _, required := range []string{quality.BaselineAudioID, quality.BaselineVideoID} {
		if !catalog.Has(required) {
			return source.Catalog{}, fmt.Errorf("%w: representation %s missing from %d formats", source.ErrExtraction, required, catalog.Len())
		}
	}

	log.Infof("catalog for %s has %d representations", videoID, catalog.Len())
	return catalog, nil
}

// toRepresentation keeps formats with a direct url. Ciphered formats cannot be played as is.
func toRepresentation(f format, _ int) (source.Representation, bool) {
	if f.URL == "" {
		return source.Representation{}, false
	}

	id := strconv.Itoa(f.Itag)
	rep := source.Representation{ID: id, URL: f.URL, Kind: source.Video, Variant: source.Primary}

	if strings.HasPrefix(f.MimeType, "audio/") {
		rep.Kind = source.Audio
		return rep, true
	}

	if candidate, ok := quality.Describe(id); ok {
		rep.Variant = candidate.Variant
	}
	return rep, true
}
