package ir

// Version constants for stored records and the tool itself.
const (
	// ConfigVersion is the highest checkpoint config_version understood.
	ConfigVersion = 1

	// Version is the gx release version.
	Version = "0.3.0"
)
