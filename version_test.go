package apilocale

import (
	"strings"
	"testing"
)

func TestFullVersion(t *testing.T) {
	orig := GitCommit
	defer func() { GitCommit = orig }()

	GitCommit = "0123456789abcdef"
	if FullVersion() != Version+"+0123456" {
		t.Errorf("Expected short commit suffix, got %q", FullVersion())
	}

	GitCommit = "abc"
	if FullVersion() != Version+"+abc" {
		t.Errorf("Expected full short commit, got %q", FullVersion())
	}

	// test binaries carry no vcs stamp
	GitCommit = "unknown"
	if !strings.HasPrefix(FullVersion(), Version) {
		t.Errorf("Expected %q prefix, got %q", Version, FullVersion())
	}
}

func TestUserAgent(t *testing.T) {
	if UserAgent() != "lafaom-gateway/"+Version {
		t.Errorf("unexpected user agent %q", UserAgent())
	}
}
