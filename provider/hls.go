package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/grafov/m3u8"
	"github.com/tubelink/tubelink/network"
	"github.com/tubelink/tubelink/source"
)

// Rendition is one variant stream advertised by an HLS master playlist.
type Rendition struct {
	URI        string
	Bandwidth  uint32
	Resolution string
	Codecs     string
}

// Playlist summarizes an HLS playlist.
type Playlist struct {
	Master     bool
	Renditions []Rendition
	// Segments is the segment count of a media playlist.
	Segments int
	Live     bool
}

// InspectHLS downloads and decodes an HLS playlist. Master playlist renditions are
// sorted by descending bandwidth.
func (e *Extractor) InspectHLS(ctx context.Context, manifestURL string) (Playlist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return Playlist{}, fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Playlist{}, fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Playlist{}, fmt.Errorf("%w: playlist returned %s", source.ErrNetwork, resp.Status)
	}

	data, err := network.ReadBody(resp)
	if err != nil {
		return Playlist{}, fmt.Errorf("%w: %v", source.ErrNetwork, err)
	}

	return DecodeHLS(data)
}

// DecodeHLS decodes a master or media playlist.
func DecodeHLS(data []byte) (Playlist, error) {
	decoded, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil {
		return Playlist{}, fmt.Errorf("%w: decode playlist: %v", source.ErrUnsupportedContainer, err)
	}

	switch listType {
	case m3u8.MASTER:
		master := decoded.(*m3u8.MasterPlaylist)
		playlist := Playlist{Master: true}
		for _, v := range master.Variants {
			if v == nil {
				continue
			}
			playlist.Renditions = append(playlist.Renditions, Rendition{
				URI:        v.URI,
				Bandwidth:  v.Bandwidth,
				Resolution: v.Resolution,
				Codecs:     v.Codecs,
			})
		}
		sort.SliceStable(playlist.Renditions, func(i, j int) bool {
			return playlist.Renditions[i].Bandwidth > playlist.Renditions[j].Bandwidth
		})
		return playlist, nil
	case m3u8.MEDIA:
		media := decoded.(*m3u8.MediaPlaylist)
		return Playlist{Segments: int(media.Count()), Live: !media.Closed}, nil
	default:
		return Playlist{}, fmt.Errorf("%w: unknown playlist type", source.ErrUnsupportedContainer)
	}
}
