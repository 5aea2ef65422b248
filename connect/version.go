package connect

// VersionInfo describes the running app version relative to the latest
// release.
type VersionInfo struct {
	CurrentVersion string
	// UpgradeVersion is empty when no upgrade is available.
	UpgradeVersion string
	IsOutdated     bool
	IsSupported    bool
}

// NeedsAttention reports whether the version should be surfaced.
func (v VersionInfo) NeedsAttention() bool {
	return !v.IsSupported || v.IsOutdated
}
