package source

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// TransportKind is how a representation's bytes are structured for delivery.
type TransportKind int

const (
	Progressive TransportKind = iota
	DASH
	HLS
	SmoothStreaming
)

func (t TransportKind) String() string {
	switch t {
	case DASH:
		return "dash"
	case HLS:
		return "hls"
	case SmoothStreaming:
		return "smooth-streaming"
	default:
		return "progressive"
	}
}

func (t TransportKind) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// smoothManifest matches .ism/.isml paths with an optional /manifest or /manifest(format=...) suffix.
var smoothManifest = regexp.MustCompile(`\.isml?(?:/manifest(?:\(.+\))?)?$`)

// progressiveExtensions lists single-file media containers.
var progressiveExtensions = map[string]struct{}{
	".mp4": {}, ".m4a": {}, ".m4v": {}, ".webm": {}, ".weba": {}, ".mkv": {}, ".mka": {},
	".mp3": {}, ".aac": {}, ".ogg": {}, ".oga": {}, ".opus": {}, ".flac": {}, ".wav": {},
	".ts": {}, ".flv": {}, ".3gp": {}, ".mov": {},
}

// Classify infers the transport kind from the path signal of a URL.
//
// A .mpd manifest or a dash manifest path is DASH, a .m3u8 playlist or an hls manifest
// path is HLS, a .ism/.isml manifest is SmoothStreaming, and a path without any manifest
// signal is Progressive. Any other extension is ErrUnsupportedContainer.
func Classify(rawURL string) (TransportKind, error) {
	if strings.TrimSpace(rawURL) == "" {
		return 0, fmt.Errorf("%w: empty url", ErrUnsupportedContainer)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}

	p := strings.ToLower(u.Path)
	if u.Scheme == "" && u.Path == "" {
		p = strings.ToLower(rawURL)
	}

	switch {
	case strings.HasSuffix(p, ".mpd"), manifestKind(p) == "dash":
		return DASH, nil
	case strings.HasSuffix(p, ".m3u8"), strings.HasPrefix(manifestKind(p), "hls"):
		return HLS, nil
	case smoothManifest.MatchString(p):
		return SmoothStreaming, nil
	}

	switch strings.ToLower(u.Query().Get("format")) {
	case "mpd-time-csf":
		return DASH, nil
	case "m3u8-aapl", "m3u8-aapl-v3":
		return HLS, nil
	}

	ext := path.Ext(path.Base(p))
	if ext == "" {
		return Progressive, nil
	}
	if _, ok := progressiveExtensions[ext]; ok {
		return Progressive, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedContainer, ext)
}

// manifestKind returns the path segment following a "manifest" segment,
// e.g. "dash" in /api/manifest/dash/id/... or "hls_variant" in /api/manifest/hls_variant/...
func manifestKind(p string) string {
	segments := strings.Split(p, "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "manifest" {
			return segments[i+1]
		}
	}
	return ""
}
