// Package catalog derives the permission catalog from the static HTTP route registry
// and reconciles it with the persisted permissions.
package catalog

// Route is one entry of the route registry.
type Route struct {
	// Resource is the logical entity the route belongs to. Empty means the first path segment.
	Resource string `json:"resource,omitempty"`
	// Method is the HTTP verb. Methods may list more verbs for the same path.
	Method  string   `json:"method,omitempty"`
	Methods []string `json:"methods,omitempty"`
	// Path is the route path as registered, parameters in ":name" or "{name}" form.
	Path        string `json:"path"`
	AdminLevel  bool   `json:"adminLevel,omitempty"`
	Description string `json:"description,omitempty"`
}

// AllMethods returns Method followed by Methods.
func (r Route) AllMethods() []string {
	methods := make([]string, 0, len(r.Methods)+1)
	if r.Method != "" {
		methods = append(methods, r.Method)
	}

	return append(methods, r.Methods...)
}
