package constant

// Upstream endpoints used when no override is configured.
const (
	// PlayerURL is the upstream player API that returns the streaming catalog of a video.
	PlayerURL = "https://www.youtube.com/youtubei/v1/player"

	// WatchURL is the metadata page scraped for live manifests. The video id is appended.
	WatchURL = "https://www.youtube.com/watch?v="

	// ClientName and ClientVersion identify the player API client profile.
	ClientName    = "ANDROID"
	ClientVersion = "19.09.37"
)
