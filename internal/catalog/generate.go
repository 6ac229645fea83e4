package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tenantcrm/crm-authz/internal/auth"
	"github.com/tenantcrm/crm-authz/internal/db/controller/permission"
	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// Options controls a generator run.
type Options struct {
	// Prefix is stripped from route paths before names are derived, e.g. "/api".
	Prefix string
	// DryRun stops after the snapshot, the store is not touched.
	DryRun bool
	// Seed inserts catalog entries missing from the store.
	Seed bool
	// RemoveObsolete deletes stored entries no route or static permission backs any more.
	RemoveObsolete bool
}

// Result is a generated catalog.
type Result struct {
	// Permissions is the deduplicated catalog sorted by name, method and path.
	Permissions []models.Permission
	// Snapshot is the JSON rendition of Permissions.
	Snapshot []byte
	// Skipped counts the (method, path) pairs that produced no permission.
	Skipped int
}

// Generate derives a permission for every (method, path) pair of routes, merges the static
// permissions and deduplicates by (name, method, path). Later entries win on collision.
// Routes that cannot be turned into a permission are logged and skipped.
func Generate(routes []Route, static []models.Permission, opts Options) (*Result, error) {
	res := &Result{}
	merged := make(map[string]models.Permission)

	for _, r := range routes {
		for _, method := range r.AllMethods() {
			p, err := derive(r, method, opts.Prefix)
			if err != nil {
				res.Skipped++

				log.Warn().Err(err).Str("method", method).Str("path", r.Path).Msg("skipping route")

				continue
			}

			merged[p.Key()] = p
		}
	}

	for _, s := range static {
		p := s
		if err := permission.Normalize(&p); err != nil {
			res.Skipped++

			log.Warn().Err(err).Str("name", s.Name).Msg("skipping static permission")

			continue
		}

		merged[p.Key()] = p
	}

	res.Permissions = make([]models.Permission, 0, len(merged))
	for _, p := range merged {
		res.Permissions = append(res.Permissions, p)
	}

	slices.SortFunc(res.Permissions, comparePermissions)

	snapshot, err := Snapshot(res.Permissions)
	if err != nil {
		return nil, err
	}

	res.Snapshot = snapshot

	return res, nil
}

// derive builds the permission of one (method, path) pair of a route.
func derive(r Route, method, prefix string) (models.Permission, error) {
	action, ok := auth.ActionForMethod(method)
	if !ok {
		return models.Permission{}, fmt.Errorf("%w: no action for method %q", auth.ErrBadRequest, method)
	}

	path := permission.NormalizePath(stripPrefix(r.Path, prefix))
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")

	resource := token(r.Resource)

	var qualifier string

	for _, seg := range segments {
		if isParam(seg) || seg == auth.WildcardName || seg == "" {
			continue
		}

		if resource == "" {
			resource = token(seg)
		}

		qualifier = token(seg)
	}

	if resource == "" {
		return models.Permission{}, fmt.Errorf("%w: no resource in path %q", auth.ErrBadRequest, r.Path)
	}

	if qualifier == resource {
		qualifier = ""
	}

	p := models.Permission{
		Name:         auth.FormatName(action, resource, qualifier),
		Method:       method,
		Path:         path,
		Description:  r.Description,
		IsAdminLevel: r.AdminLevel,
	}

	if err := permission.Normalize(&p); err != nil {
		return models.Permission{}, err
	}

	return p, nil
}

func stripPrefix(path, prefix string) string {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return path
	}

	if path == prefix || strings.HasPrefix(path, prefix+"/") {
		return strings.TrimPrefix(path, prefix)
	}

	return path
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, ":") || (strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"))
}

// token turns a path segment or resource hint into a name token: lower case, "_" becomes "-".
func token(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
}

func comparePermissions(a, b models.Permission) int {
	return cmp.Or(
		strings.Compare(a.Name, b.Name),
		strings.Compare(a.Method, b.Method),
		strings.Compare(a.Path, b.Path),
	)
}
