package history

import (
	"fmt"
	"time"
)

// Entry is one resolved source kept in the history.
type Entry struct {
	// Ref is the requested asset path, video reference or media url.
	Ref     string `json:"ref"`
	VideoID string `json:"video_id,omitempty"`
	Mode    string `json:"mode"`
	Quality string `json:"quality"`
	Live    bool   `json:"live"`
	// Video and Audio are the representation ids picked for a catalog resolution.
	Video string `json:"video,omitempty"`
	Audio string `json:"audio,omitempty"`

	FirstResolved time.Time `json:"first_resolved"`
	LastResolved  time.Time `json:"last_resolved"`
	Count         int       `json:"count"`
}

func (e *Entry) encode() string {
	id := e.VideoID
	if id == "" {
		id = e.Ref
	}
	if e.Live {
		return id + " (live)"
	}
	return id
}

func (e *Entry) String() string {
	var tracks string
	if e.Video != "" {
		tracks = fmt.Sprintf(" [%s+%s]", e.Video, e.Audio)
	}
	return fmt.Sprintf("%s : %s %s%s x%d", e.encode(), e.Mode, e.Quality, tracks, e.Count)
}
