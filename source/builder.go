package source

import "fmt"

// Build assembles the playback source for a selected video and audio representation.
//
// DASH, SmoothStreaming and Progressive video is merged with the audio representation,
// whose URL must classify as one of those kinds too. HLS manifests are self-contained,
// so the audio representation is discarded.
func Build(video, audio Representation) (PlaybackSource, error) {
	kind, err := Classify(video.URL)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", video.ID, err)
	}

	switch kind {
	case DASH, SmoothStreaming, Progressive:
		audioKind, err := Classify(audio.URL)
		if err != nil {
			return nil, fmt.Errorf("audio %s: %w", audio.ID, err)
		}
		if !mergeable(audioKind) {
			return nil, fmt.Errorf("%w: cannot merge %s video with %s audio", ErrUnsupportedContainer, kind, audioKind)
		}
		return Merged{Video: video, Audio: audio}, nil
	case HLS:
		return SingleManifest{URL: video.URL}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContainer, kind)
	}
}

func mergeable(kind TransportKind) bool {
	return kind == DASH || kind == SmoothStreaming || kind == Progressive
}
