// Package remediate turns arbitrary relative paths into paths that are valid
// inside a package on every supported platform.
//
// Remediation is idempotent: Path(Path(p)) == Path(p).
package remediate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// Placeholder replaces anything that cannot appear in a package path.
const Placeholder = "_"

// DefaultProfileID identifies the Data Conservancy BagIt profile.
const DefaultProfileID = "http://dataconservancy.org/formats/data-conservancy-pkg-1.0"

// Profile holds the path constraints of a packaging profile.
type Profile struct {
	ID          string
	MaxSegment  int      // bytes per path segment
	MaxPath     int      // bytes per whole path
	Reserved    []string // layout prefixes kept verbatim
	Placeholder string
}

var profiles = map[string]Profile{
	DefaultProfileID: {
		ID:         DefaultProfileID,
		MaxSegment: 255,
		MaxPath:    1024,
		Reserved: []string{
			"META-INF/org.dataconservancy.bagit/",
			"data/",
		},
		Placeholder: Placeholder,
	},
}

// Lookup returns the profile registered under id.
func Lookup(id string) (Profile, bool) {
	p, ok := profiles[id]
	return p, ok
}

// Default returns the default profile.
func Default() Profile {
	return profiles[DefaultProfileID]
}

// Path remediates candidate against the profile named by profileID, using the
// default profile when the id is unknown.
func Path(candidate, profileID string) string {
	p, ok := Lookup(profileID)
	if !ok {
		p = Default()
	}
	return p.Path(candidate)
}

// Path remediates candidate until it no longer changes.
func (p Profile) Path(candidate string) string {
	current := candidate
	for range 8 {
		next := p.pass(current)
		if next == current {
			break
		}
		current = next
	}
	return current
}

func (p Profile) pass(candidate string) string {
	path := strings.TrimLeft(candidate, "/")

	prefix := ""
	for _, r := range p.Reserved {
		if strings.HasPrefix(path, r) {
			prefix = r
			path = path[len(r):]
			break
		}
	}

	trailing := strings.HasSuffix(path, "/")
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		segments = append(segments, p.segment(seg))
	}

	out := prefix + strings.Join(segments, "/")
	if trailing && len(segments) > 0 {
		out += "/"
	}
	if len(out) > p.MaxPath {
		out = truncate(out, p.MaxPath)
	}
	return out
}

func (p Profile) segment(seg string) string {
	if seg == "." || seg == ".." {
		return p.Placeholder
	}
	if isDeviceName(seg) {
		return p.Placeholder
	}

	var sb strings.Builder
	for i := 0; i < len(seg); {
		r, size := utf8.DecodeRuneInString(seg[i:])
		switch {
		case r == utf8.RuneError && size <= 1:
			sb.WriteString(p.Placeholder)
		case r < 0x20 || r == 0x7f:
			sb.WriteString(p.Placeholder)
		case strings.ContainsRune(`<>:"\|?*`, r):
			sb.WriteString(p.Placeholder)
		default:
			sb.WriteString(seg[i : i+size])
		}
		i += size
	}

	out := sb.String()
	if len(out) > p.MaxSegment {
		out = truncate(out, p.MaxSegment)
	}
	return out
}

var deviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

func isDeviceName(seg string) bool {
	base := seg
	if i := strings.IndexByte(seg, '.'); i >= 0 {
		base = seg[:i]
	}
	_, ok := deviceNames[strings.ToUpper(strings.TrimSpace(base))]
	return ok
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Unique derives a collision-free substitute for hint from identifier. The
// file name becomes a hash of identifier; the directory prefix, the extension
// and any trailing slash of hint are kept.
func Unique(identifier, hint string) string {
	sum := sha256.Sum256([]byte(identifier))
	name := hex.EncodeToString(sum[:16])

	trailing := strings.HasSuffix(hint, "/")
	trimmed := strings.TrimSuffix(hint, "/")

	dir, base := "", trimmed
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		dir, base = trimmed[:i+1], trimmed[i+1:]
	}

	if !trailing {
		if i := strings.LastIndexByte(base, '.'); i > 0 {
			name += base[i:]
		}
	}

	out := dir + name
	if trailing {
		out += "/"
	}
	return out
}
