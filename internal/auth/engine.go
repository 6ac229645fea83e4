package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PermissionSource resolves the union of permission names granted by a set of roles.
type PermissionSource interface {
	PermissionNames(ctx context.Context, tenantID uint, roleIDs []uint) ([]string, error)
}

// Authorizer decides whether an identity holds the permissions required by an endpoint.
type Authorizer interface {
	Authorize(ctx context.Context, identity Identity, required []string) (Decision, error)
}

// Decision is the verdict of the engine.
type Decision struct {
	Allowed  bool     `json:"allowed"`
	Strategy Strategy `json:"strategy"`
	Reason   string   `json:"reason,omitempty"`
	// Missing lists the required names that were not satisfied, in declared order.
	Missing []string `json:"missing,omitempty"`
}

// Err returns nil for an allow and a *DeniedError for a deny.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}

	return &DeniedError{Decision: d}
}

// Engine evaluates required permission names against super-user, owner and role strategies.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	source PermissionSource
	owners OwnerBundle
}

// NewEngine creates an engine reading role permissions from source and owner rights from owners.
func NewEngine(source PermissionSource, owners OwnerBundle) *Engine {
	return &Engine{
		source: source,
		owners: owners,
	}
}

// Authorize returns the decision for identity and the route's required permission names.
// An empty requirement only demands authentication. Errors wrap ErrSystem and are never denials.
func (e *Engine) Authorize(ctx context.Context, identity Identity, required []string) (Decision, error) {
	var (
		start    = time.Now()
		strategy = identity.Strategy()
		names    = uniqueNames(required)
		decision Decision
		err      error
	)

	switch strategy {
	case StrategySuper:
		decision = Decision{Allowed: true, Strategy: strategy}
	case StrategyOwner:
		decision = e.authorizeOwner(names)
	default:
		decision, err = e.authorizeRoles(ctx, identity, names)
	}

	observeDecision(strategy, decision, err, time.Since(start))

	if err != nil {
		log.Error().Err(err).Uint64("user_id", identity.UserID).Uint("tenant_id", identity.TenantID).
			Strs("required", names).Msg("failed to evaluate authorization")

		return Decision{Strategy: strategy}, err
	}

	if !decision.Allowed {
		log.Warn().Uint64("user_id", identity.UserID).Uint("tenant_id", identity.TenantID).
			Str("strategy", string(strategy)).Strs("missing", decision.Missing).
			Msg("authorization denied")
	}

	return decision, nil
}

// authorizeOwner grants every action on the resources of the owner bundle.
func (e *Engine) authorizeOwner(required []string) Decision {
	var missing, resources []string

	for _, name := range required {
		n, err := ParseName(name)
		if err != nil || n.IsWildcard() {
			missing = append(missing, name)
			resources = append(resources, name)

			continue
		}

		if !e.owners.Grants(n.Resource) {
			missing = append(missing, name)
			resources = append(resources, n.Resource)
		}
	}

	if len(missing) > 0 {
		return Decision{
			Strategy: StrategyOwner,
			Reason:   "owner lacks resource access for: " + joinNames(uniqueNames(resources)),
			Missing:  missing,
		}
	}

	return Decision{Allowed: true, Strategy: StrategyOwner}
}

// authorizeRoles requires every name to be held by one of the identity's roles, unless "*" is held.
func (e *Engine) authorizeRoles(ctx context.Context, identity Identity, required []string) (Decision, error) {
	if len(required) == 0 {
		return Decision{Allowed: true, Strategy: StrategyRole}, nil
	}

	held := make(map[string]struct{})

	if len(identity.RoleIDs) > 0 {
		names, err := e.source.PermissionNames(ctx, identity.TenantID, identity.RoleIDs)
		if err != nil {
			return Decision{}, systemError(err)
		}

		for _, n := range names {
			held[NormalizeName(n)] = struct{}{}
		}
	}

	if _, ok := held[WildcardName]; ok {
		return Decision{Allowed: true, Strategy: StrategyRole}, nil
	}

	var missing []string

	for _, name := range required {
		if _, ok := held[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return Decision{
			Strategy: StrategyRole,
			Reason:   "missing required permission: " + joinNames(missing),
			Missing:  missing,
		}, nil
	}

	return Decision{Allowed: true, Strategy: StrategyRole}, nil
}

// uniqueNames normalizes names and drops empties and duplicates, keeping the first occurrence.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, n := range names {
		n = NormalizeName(n)
		if n == "" {
			continue
		}

		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out
}
