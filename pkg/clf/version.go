package clf

// Version information for the clf module.
const (
	// Version is the current version of the clf module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)
