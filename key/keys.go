// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Upstream Service - these keys locate the video service the catalog and live pages are fetched from.
const (
	UpstreamPlayerURL     = "upstream.player_url"
	UpstreamWatchURL      = "upstream.watch_url"
	UpstreamAPIKey        = "upstream.api_key"
	UpstreamClientName    = "upstream.client_name"
	UpstreamClientVersion = "upstream.client_version"
)

// Network Transport - these keys shape outbound requests to the upstream service.
const (
	NetworkFingerprint = "network.fingerprint"
	NetworkRateLimit   = "network.rate_limit"
	NetworkRateBurst   = "network.rate_burst"
)

// Media Playback - these keys maintain the configuration for the playback engine.
const (
	PlayerDefaultQuality = "player.default_quality"
	PlayerEngine         = "player.engine"
	PlayerLooping        = "player.looping"
	PlayerAssetRoot      = "player.asset_root"
)

// History Tracking - these keys configure the persistence of resolved videos.
const (
	HistorySave = "history.save"
)

// Metrics Exposition - these keys configure the Prometheus endpoint of long-running commands.
const (
	MetricsListen = "metrics.listen"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the command-line behavior.
const (
	CliColored   = "cli.colored"
	IconsVariant = "icons.variant"
)
