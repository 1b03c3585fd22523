package source

import "encoding/json"

// PlaybackSource is what gets handed to the playback engine.
// It is either a Merged pair of elementary streams or a SingleManifest.
type PlaybackSource interface {
	isPlaybackSource()
}

// Merged pairs one video-only and one audio-only representation under a shared clock.
type Merged struct {
	Video Representation
	Audio Representation
}

func (Merged) isPlaybackSource() {}

func (m Merged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string         `json:"type"`
		Video Representation `json:"video"`
		Audio Representation `json:"audio"`
	}{"merged", m.Video, m.Audio})
}

// SingleManifest is a self-contained source that already multiplexes both tracks.
type SingleManifest struct {
	URL string
}

func (SingleManifest) isPlaybackSource() {}

func (s SingleManifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	}{"manifest", s.URL})
}
