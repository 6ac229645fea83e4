package auth

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// OwnerBundle is the immutable set of resource names an owner may access with any action.
// Build it once at startup and inject it into the Engine.
type OwnerBundle struct {
	resources map[string]struct{}
}

// ownerBundleFile is the on-disk layout of an owner bundle.
// A bare YAML or JSON list of resource names is accepted as well.
type ownerBundleFile struct {
	Resources []string `yaml:"resources"`
}

// NewOwnerBundle builds a bundle from resource names or permission-shaped entries.
// An entry such as "create:payment" contributes its resource token "payment".
// Entries that are neither are ignored.
func NewOwnerBundle(entries ...string) OwnerBundle {
	b := OwnerBundle{resources: make(map[string]struct{}, len(entries))}

	for _, e := range entries {
		if r, ok := bundleResource(e); ok {
			b.resources[r] = struct{}{}
		}
	}

	return b
}

// LoadOwnerBundle reads a bundle file and merges the extra entries into it.
// An empty path yields a bundle made only of extra.
func LoadOwnerBundle(path string, extra ...string) (OwnerBundle, error) {
	if path == "" {
		return NewOwnerBundle(extra...), nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec // path comes from the operator config
	if err != nil {
		return OwnerBundle{}, fmt.Errorf("read owner bundle %s: %w", path, err)
	}

	var list []string
	if errList := yaml.Unmarshal(raw, &list); errList != nil {
		var file ownerBundleFile
		if errFile := yaml.Unmarshal(raw, &file); errFile != nil {
			return OwnerBundle{}, fmt.Errorf("%w: owner bundle %s: %w", ErrBadRequest, path, errFile)
		}

		list = file.Resources
	}

	return NewOwnerBundle(append(list, extra...)...), nil
}

// Grants reports whether resource is a member of the bundle. The comparison is case-insensitive
// and matches whole tokens only: "user" never grants "superuser", "super-user" or "users".
func (b OwnerBundle) Grants(resource string) bool {
	r := NormalizeName(resource)
	if !validToken(r) {
		return false
	}

	_, ok := b.resources[r]

	return ok
}

// Len returns the number of resources in the bundle.
func (b OwnerBundle) Len() int {
	return len(b.resources)
}

// Resources returns the bundle members sorted.
func (b OwnerBundle) Resources() []string {
	out := make([]string, 0, len(b.resources))
	for r := range b.resources {
		out = append(out, r)
	}

	slices.Sort(out)

	return out
}

func bundleResource(entry string) (string, bool) {
	e := NormalizeName(entry)

	if strings.Contains(e, nameSeparator) {
		n, err := ParseName(e)
		if err != nil || n.IsWildcard() {
			return "", false
		}

		return n.Resource, true
	}

	if e == WildcardName || !validToken(e) {
		return "", false
	}

	return e, true
}
