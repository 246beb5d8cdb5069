package apilocale

import "runtime/debug"

// Application identity.
const (
	Name        = "lafaom-gateway"
	Description = "Translating, caching API gateway for the LAFAOM-MAO site"
	Version     = "0.3.0"
	Repository  = "https://github.com/lafaom-mao/apilocale"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/lafaom-mao/apilocale.GitCommit=$(git rev-parse HEAD)"
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Commit returns GitCommit, or the VCS revision stamped by the Go toolchain
// when the binary was built without ldflags.
func Commit() string {
	if GitCommit != "unknown" && GitCommit != "" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return ""
}

// FullVersion is Version with the short commit appended when known,
// e.g. "0.3.0+1a2b3c4".
func FullVersion() string {
	commit := Commit()
	if commit == "" {
		return Version
	}
	return Version + "+" + commit[:min(len(commit), 7)]
}

// UserAgent is sent on outgoing endpoint requests.
func UserAgent() string {
	return Name + "/" + Version
}
