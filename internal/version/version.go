// Package version determines installed and latest server versions and
// decides whether an update should proceed.
package version

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the three states a version value can be in.
type Kind int

const (
	// Known is a concrete version string, numeric or not.
	Known Kind = iota
	// NotInstalled means no server binary exists yet.
	NotInstalled
	// Unknown means no version could be determined.
	Unknown
)

// Sentinel strings used when a Version crosses a text boundary
// (metadata files, log lines, notifications).
const (
	sentinelNotInstalled = "not-installed"
	sentinelUnknown      = "unknown"
)

// numericPattern matches the dot-delimited four-part scheme Bedrock uses,
// e.g. "1.21.44.1".
var numericPattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// Version is a tagged version value. Only Known versions carry a string;
// numeric four-part versions additionally carry parsed components.
type Version struct {
	Kind  Kind
	Raw   string
	parts []int
}

// Parse classifies a version string, recognizing the sentinel forms.
func Parse(s string) Version {
	s = strings.TrimSpace(s)
	switch s {
	case "", sentinelUnknown:
		return Version{Kind: Unknown}
	case sentinelNotInstalled:
		return Version{Kind: NotInstalled}
	}
	v := Version{Kind: Known, Raw: s}
	if numericPattern.MatchString(s) {
		for _, p := range strings.Split(s, ".") {
			n, _ := strconv.Atoi(p)
			v.parts = append(v.parts, n)
		}
	}
	return v
}

// MakeUnknown returns the Unknown variant.
func MakeUnknown() Version { return Version{Kind: Unknown} }

// MakeNotInstalled returns the NotInstalled variant.
func MakeNotInstalled() Version { return Version{Kind: NotInstalled} }

// Numeric reports whether v is a well-formed four-part numeric version.
func (v Version) Numeric() bool { return len(v.parts) == 4 }

// String renders the version, using the sentinel forms for the
// non-Known variants.
func (v Version) String() string {
	switch v.Kind {
	case NotInstalled:
		return sentinelNotInstalled
	case Unknown:
		return sentinelUnknown
	default:
		return v.Raw
	}
}

// Compare orders two numeric versions component-wise. It returns -1, 0 or 1.
// Both versions must be Numeric; callers check that first.
func Compare(a, b Version) int {
	for i := 0; i < 4; i++ {
		switch {
		case a.parts[i] < b.parts[i]:
			return -1
		case a.parts[i] > b.parts[i]:
			return 1
		}
	}
	return 0
}
