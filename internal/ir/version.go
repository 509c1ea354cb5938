package ir

// Version of the engine, reported by the CLI and recorded with each trace run.
const (
	VersionMajor = 0
	VersionMinor = 3
	VersionPatch = 0

	EngineVersion = "0.3.0"
)
