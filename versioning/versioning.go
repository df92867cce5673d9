package versioning

// Build information, set with -ldflags at build time. Version follows
// semantic versioning.
var (
	Version   string
	Branch    string
	Commit    string
	BuildTime string
)
