// Package emby triggers a media server library refresh after a run changes
// sidecars, so Emby (or Jellyfin, which shares the API) picks up the new
// date-added values without waiting for its scheduled scan.
//
// NewConfiguredService returns a no-op service when the integration is
// disabled or lacks credentials.
package emby
