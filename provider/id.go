package provider

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// NormalizeID accepts a bare video id or a watch, short, embed or youtu.be url
// and returns the bare id.
func NormalizeID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if videoIDPattern.MatchString(ref) {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid video reference %q", ref)
	}

	var id string
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch {
	case host == "youtu.be":
		id = segments[0]
	case u.Query().Has("v"):
		id = u.Query().Get("v")
	case len(segments) == 2 && (segments[0] == "shorts" || segments[0] == "embed" || segments[0] == "live" || segments[0] == "v"):
		id = segments[1]
	}

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("no video id in %q", ref)
	}
	return id, nil
}

// IsVideoURL reports whether ref names an upstream video rather than a media file.
func IsVideoURL(ref string) bool {
	_, err := NormalizeID(ref)
	return err == nil
}
