package name

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// NoteExtension is the extension appended by writers. The allocator
	// returns names without it but probes disk with it attached.
	NoteExtension = ".md"

	componentSeparator = " - "
	fallbackBaseName   = "unnamed"
	maxBaseNameLength  = 200
)

// ConfigError reports an allocator that cannot be constructed because of
// invalid naming fields or an unusable target directory.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "allocator configuration: " + e.Reason
}

// DirProbe answers whether a note with the given name (extension
// excluded) already exists in the target directory. Implementations back
// the allocator's on-disk collision check; tests substitute in-memory
// fakes to avoid real I/O.
type DirProbe interface {
	Exists(name string) bool
}

type statProbe struct {
	dir string
}

func (p statProbe) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(p.dir, name+NoteExtension))
	return err == nil
}

// NewDirProbe returns the stat-based probe used in production. Supplying it
// explicitly skips construction-time directory validation, which callers
// need when the output directory is created later in the run. A missing
// directory simply reports every name as free.
func NewDirProbe(dir string) DirProbe {
	return statProbe{dir: dir}
}

// AllocatorConfig configures a new Allocator.
type AllocatorConfig struct {
	// Dir is the output directory probed for existing notes. It must
	// exist unless a custom Probe is supplied.
	Dir string
	// Fields is the ordered list of record fields composed into each
	// name. Order determines component order in the output.
	Fields []string
	// Ignored supplies the live ignored-character set. Defaults to
	// DefaultIgnoredCharacters.
	Ignored IgnoredProvider
	// Probe overrides the on-disk existence check. When set, Dir is not
	// validated or consulted.
	Probe DirProbe
}

// Allocator derives a batch-unique note name for every record. Names
// handed out during a session are remembered, and the target directory
// is probed on every candidate, so two rows with identical values or a
// rerun against prior output never collide.
type Allocator struct {
	fields    []string
	sanitizer *Sanitizer
	probe     DirProbe

	allocated map[string]struct{}
	counts    map[string]int
}

// NewAllocator validates the configuration and returns an allocator with
// empty session state.
func NewAllocator(cfg AllocatorConfig) (*Allocator, error) {
	if len(cfg.Fields) == 0 {
		return nil, &ConfigError{Reason: "naming fields cannot be empty"}
	}

	probe := cfg.Probe
	if probe == nil {
		info, err := os.Stat(cfg.Dir)
		if os.IsNotExist(err) {
			return nil, &ConfigError{Reason: fmt.Sprintf("output directory %s does not exist", cfg.Dir)}
		}
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("output directory %s is not accessible: %v", cfg.Dir, err)}
		}
		if !info.IsDir() {
			return nil, &ConfigError{Reason: fmt.Sprintf("output path %s is not a directory", cfg.Dir)}
		}
		probe = statProbe{dir: cfg.Dir}
	}

	return &Allocator{
		fields:    append([]string(nil), cfg.Fields...),
		sanitizer: NewSanitizer(cfg.Ignored),
		probe:     probe,
		allocated: make(map[string]struct{}),
		counts:    make(map[string]int),
	}, nil
}

// Fields returns the naming fields in composition order.
func (a *Allocator) Fields() []string {
	return append([]string(nil), a.fields...)
}

// Generate returns a unique name for the record. sequenceIndex is the
// record's zero-based position in the batch and only feeds the fallback
// name for rows whose naming fields are all empty. Generation never
// fails; every row receives a valid name.
func (a *Allocator) Generate(record map[string]string, sequenceIndex int) string {
	base := a.buildBaseName(record)
	if base == fallbackBaseName {
		base = fmt.Sprintf("unnamed_row_%d", sequenceIndex+1)
	}
	return a.ensureUnique(base)
}

// FallsBack reports whether record carries no usable naming values, which
// forces Generate onto the positional fallback name.
func (a *Allocator) FallsBack(record map[string]string) bool {
	return a.buildBaseName(record) == fallbackBaseName
}

// Reset clears the session state so a fresh batch against the same
// directory starts from unsuffixed names again.
func (a *Allocator) Reset() {
	a.allocated = make(map[string]struct{})
	a.counts = make(map[string]int)
}

// buildBaseName composes sanitized field values in field order. Fields
// that are missing or clean down to empty are skipped rather than left
// as empty slots.
func (a *Allocator) buildBaseName(record map[string]string) string {
	components := make([]string, 0, len(a.fields))
	for _, field := range a.fields {
		value := strings.TrimSpace(record[field])
		if value == "" {
			continue
		}
		cleaned := a.sanitizer.Clean(value)
		if cleaned == "" {
			continue
		}
		components = append(components, cleaned)
	}

	base := strings.Join(components, componentSeparator)
	if base == "" {
		return fallbackBaseName
	}
	if utf8.RuneCountInString(base) > maxBaseNameLength {
		runes := []rune(base)
		base = strings.TrimSpace(string(runes[:maxBaseNameLength]))
	}
	return base
}

// ensureUnique resolves the base name against both the session set and
// the directory. The first collision on a base yields " - 2"; the
// counter only grows, so the loop always terminates.
func (a *Allocator) ensureUnique(base string) string {
	if a.isFree(base) {
		a.allocated[base] = struct{}{}
		return base
	}

	if _, ok := a.counts[base]; !ok {
		a.counts[base] = 1
	}
	for {
		a.counts[base]++
		candidate := fmt.Sprintf("%s%s%d", base, componentSeparator, a.counts[base])
		if a.isFree(candidate) {
			a.allocated[candidate] = struct{}{}
			return candidate
		}
	}
}

func (a *Allocator) isFree(candidate string) bool {
	if _, taken := a.allocated[candidate]; taken {
		return false
	}
	return !a.probe.Exists(candidate)
}
