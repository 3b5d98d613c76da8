package version

// Set via ldflags at build time.
var (
	Version   = "development"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
