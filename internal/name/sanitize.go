package name

import "strings"

// unsafeFilenameChars are substituted with underscores so derived names
// stay valid on Windows, macOS, and Linux filesystems.
const unsafeFilenameChars = "<>:\"/\\|?*"

// IgnoredProvider supplies the current set of characters to strip from
// values before sanitization. It is consulted on every Clean call, so
// configuration changes apply to subsequent values without rebuilding
// the sanitizer.
type IgnoredProvider func() []string

// DefaultIgnoredCharacters returns the stock ignored set. Square brackets
// are stripped by default because exported fields frequently carry tag
// markup like "[[Minor]]" that should not surface in file names.
func DefaultIgnoredCharacters() []string {
	return []string{"[", "]"}
}

// Sanitizer turns one raw field value into a filesystem-safe name
// component. It never fails; degenerate input collapses to an empty
// string and the caller decides what emptiness means.
type Sanitizer struct {
	ignored IgnoredProvider
}

// NewSanitizer builds a sanitizer around the given ignored-character
// provider. A nil provider falls back to DefaultIgnoredCharacters.
func NewSanitizer(ignored IgnoredProvider) *Sanitizer {
	if ignored == nil {
		ignored = DefaultIgnoredCharacters
	}
	return &Sanitizer{ignored: ignored}
}

// Clean strips ignored characters, substitutes filesystem-unsafe
// characters with underscores, drops control characters, and trims
// leading and trailing spaces and dots.
func (s *Sanitizer) Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	cleaned := raw
	for _, ch := range s.ignored() {
		if ch == "" {
			continue
		}
		cleaned = strings.ReplaceAll(cleaned, ch, "")
	}

	var b strings.Builder
	b.Grow(len(cleaned))
	for _, r := range cleaned {
		switch {
		case strings.ContainsRune(unsafeFilenameChars, r):
			b.WriteRune('_')
		case r < 32 || r == 127:
			// control characters contribute nothing
		default:
			b.WriteRune(r)
		}
	}

	// Leading or trailing dots hide files on some filesystems.
	return strings.Trim(b.String(), ". ")
}
