package support

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/Boereck/DEMIS-validation-service/cache"
)

// SnapshotGeneratingSupport is the last chain member. It derives snapshots
// for differential-only profiles by merging the differential onto the
// snapshot of the base definition, which it resolves through the chain.
// Generated snapshots are memoized per canonical URL.
type SnapshotGeneratingSupport struct {
	noAnswer
	chain     *Chain
	generated *cache.LRU[string, *StructureDefinition]
}

// NewSnapshotGeneratingSupport creates the provider. It must be placed in
// a chain before use so it can resolve base definitions.
func NewSnapshotGeneratingSupport() *SnapshotGeneratingSupport {
	return &SnapshotGeneratingSupport{
		generated: cache.New[string, *StructureDefinition](128),
	}
}

func (s *SnapshotGeneratingSupport) bind(c *Chain) { s.chain = c }

// Kind implements Provider.
func (s *SnapshotGeneratingSupport) Kind() ProviderKind { return KindSnapshotGenerator }

// GenerateSnapshot returns a copy of profile with a populated snapshot.
// A profile that already has one is returned as-is.
func (s *SnapshotGeneratingSupport) GenerateSnapshot(ctx context.Context, profile *StructureDefinition) (*StructureDefinition, error) {
	if profile == nil {
		return nil, errors.New("nil profile")
	}
	if profile.HasSnapshot() {
		return profile, nil
	}
	if s.chain == nil {
		return nil, ErrNotSupported
	}
	if cached, ok := s.generated.Get(profile.URL); ok {
		return cached, nil
	}
	generated, err := s.generate(ctx, profile, map[string]bool{profile.URL: true})
	if err != nil {
		return nil, err
	}
	if profile.URL != "" {
		s.generated.Set(profile.URL, generated)
	}
	return generated, nil
}

func (s *SnapshotGeneratingSupport) generate(ctx context.Context, profile *StructureDefinition, seen map[string]bool) (*StructureDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if profile.BaseDefinition == "" {
		return nil, errors.Newf("profile %s has no snapshot and no base definition", profile.URL)
	}
	if seen[profile.BaseDefinition] {
		return nil, errors.Newf("circular base definition reference at %s", profile.BaseDefinition)
	}
	seen[profile.BaseDefinition] = true

	base, err := s.chain.FetchStructureDefinition(ctx, profile.BaseDefinition)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving base definition %s for %s", profile.BaseDefinition, profile.URL)
	}
	if !base.HasSnapshot() {
		base, err = s.generate(ctx, base, seen)
		if err != nil {
			return nil, err
		}
	}

	out := *profile
	out.Snapshot = mergeDifferential(base.Snapshot, rebasePaths(profile.Differential, base.Type, profile.Type))
	return &out, nil
}

// rebasePaths rewrites the root path segment of differential elements when
// a profile constrains a base of a different type name, so merging can
// match elements by path.
func rebasePaths(diff []ElementDefinition, baseType, profileType string) []ElementDefinition {
	if baseType == "" || profileType == "" || baseType == profileType {
		return diff
	}
	out := make([]ElementDefinition, len(diff))
	for i, ed := range diff {
		out[i] = ed
		if ed.Path == profileType {
			out[i].Path = baseType
		} else if rest, ok := cutPrefix(ed.Path, profileType+"."); ok {
			out[i].Path = baseType + "." + rest
		}
	}
	return out
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return s, false
}

// mergeDifferential overlays differential constraints onto the base
// snapshot. Elements are matched by path; unsliced differential elements
// replace the base entry in place, sliced and novel elements are appended
// after their closest base anchor.
func mergeDifferential(base, diff []ElementDefinition) []ElementDefinition {
	merged := make([]ElementDefinition, len(base))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, ed := range merged {
		if ed.SliceName == "" {
			index[ed.Path] = i
		}
	}

	for _, d := range diff {
		if d.SliceName == "" {
			if i, ok := index[d.Path]; ok {
				merged[i] = overlayElement(merged[i], d)
				continue
			}
		}
		at := insertionPoint(merged, d.Path)
		merged = append(merged, ElementDefinition{})
		copy(merged[at+1:], merged[at:])
		merged[at] = d
		index = reindex(merged)
	}
	return merged
}

func reindex(elements []ElementDefinition) map[string]int {
	index := make(map[string]int, len(elements))
	for i, ed := range elements {
		if ed.SliceName == "" {
			index[ed.Path] = i
		}
	}
	return index
}

// insertionPoint places a new element after the last entry sharing its
// path or its parent path, falling back to the end of the snapshot.
func insertionPoint(elements []ElementDefinition, path string) int {
	parent := parentPath(path)
	at := len(elements)
	for i, ed := range elements {
		if ed.Path == path || ed.Path == parent || hasPathPrefix(ed.Path, path) {
			at = i + 1
		}
	}
	return at
}

func parentPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}

func hasPathPrefix(path, prefix string) bool {
	return len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '.'
}

// overlayElement applies the constrained parts of d over b. Zero values in
// the differential leave the base value untouched; cardinality can only
// narrow.
func overlayElement(b, d ElementDefinition) ElementDefinition {
	out := b
	if d.ID != "" {
		out.ID = d.ID
	}
	if d.Min > b.Min {
		out.Min = d.Min
	}
	if d.Max != "" {
		out.Max = d.Max
	}
	if len(d.Types) > 0 {
		out.Types = d.Types
	}
	if d.Binding != nil {
		out.Binding = d.Binding
	}
	if len(d.Constraints) > 0 {
		out.Constraints = append(append([]Constraint{}, b.Constraints...), d.Constraints...)
	}
	return out
}

var _ Provider = (*SnapshotGeneratingSupport)(nil)
