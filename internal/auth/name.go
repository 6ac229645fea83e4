package auth

import (
	"net/http"
	"regexp"
	"strings"
)

// Action is the verb part of a permission name.
type Action string

// Known actions.
const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionManage  Action = "manage"
	ActionAssign  Action = "assign"
	ActionApprove Action = "approve"
	ActionExport  Action = "export"
	ActionImport  Action = "import"
)

// WildcardName is the permission name that satisfies every requirement of a regular identity.
const WildcardName = "*"

const (
	nameSeparator    = ":"
	segmentSeparator = "-"
)

// nameFormat is the conventional wire format of permission names.
var nameFormat = regexp.MustCompile(`^[a-z0-9-]+:[a-z0-9:*-]+$`)

// methodActions maps HTTP verbs to the action of the route-derived permission.
var methodActions = map[string]Action{ //nolint:gochecknoglobals
	http.MethodGet:    ActionView,
	http.MethodPost:   ActionCreate,
	http.MethodPut:    ActionUpdate,
	http.MethodPatch:  ActionUpdate,
	http.MethodDelete: ActionDelete,
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionCreate, ActionUpdate, ActionDelete,
		ActionManage, ActionAssign, ActionApprove, ActionExport, ActionImport:
		return true
	}

	return false
}

// ActionForMethod returns the action for an HTTP method. Methods outside the table yield false.
func ActionForMethod(method string) (Action, bool) {
	a, ok := methodActions[strings.ToUpper(strings.TrimSpace(method))]
	return a, ok
}

// Name is a parsed permission name. The zero value is invalid; Wildcard is the "*" sentinel.
type Name struct {
	Action   Action
	Resource string
	// Qualifier holds everything after the resource, e.g. "permissions" in "create:roles:permissions".
	Qualifier string

	wildcard bool
}

// Wildcard is the distinguished name granting everything to the roles holding it.
var Wildcard = Name{wildcard: true} //nolint:gochecknoglobals

// NormalizeName lower-cases and trims a permission name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseName parses "<action>:<resource>[:<qualifier>...]".
// The resource is the text after the first colon up to the next colon or the end of the string.
func ParseName(raw string) (Name, error) {
	name := NormalizeName(raw)
	if name == WildcardName {
		return Wildcard, nil
	}

	if !nameFormat.MatchString(name) {
		return Name{}, malformed(raw)
	}

	action, rest, _ := strings.Cut(name, nameSeparator)
	resource, qualifier, _ := strings.Cut(rest, nameSeparator)

	if !validToken(resource) {
		return Name{}, malformed(raw)
	}

	return Name{
		Action:    Action(action),
		Resource:  resource,
		Qualifier: qualifier,
	}, nil
}

// IsWildcard reports whether n is the "*" sentinel.
func (n Name) IsWildcard() bool {
	return n.wildcard
}

// String formats the name back to its canonical form.
func (n Name) String() string {
	if n.wildcard {
		return WildcardName
	}

	return FormatName(n.Action, n.Resource, n.Qualifier)
}

// FormatName joins an action and resource parts with ":" skipping empty parts,
// so a root path never leaves a dangling separator.
func FormatName(action Action, parts ...string) string {
	out := make([]string, 0, len(parts)+1)
	out = append(out, string(action))

	for _, p := range parts {
		p = strings.Trim(strings.ToLower(p), nameSeparator)
		if p != "" {
			out = append(out, p)
		}
	}

	return strings.Join(out, nameSeparator)
}

// validToken checks that every "-" separated segment of a resource token is a non-empty run of
// lower case letters and digits. "*" alone is accepted as the wildcard resource.
func validToken(token string) bool {
	if token == WildcardName {
		return true
	}

	if token == "" {
		return false
	}

	for _, seg := range strings.Split(token, segmentSeparator) {
		if seg == "" {
			return false
		}

		for _, c := range seg {
			if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
				return false
			}
		}
	}

	return true
}
