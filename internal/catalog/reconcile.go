package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// Store is the persisted permission catalog.
type Store interface {
	ListPermissions(ctx context.Context) ([]models.Permission, error)
	InsertPermissions(ctx context.Context, perms []models.Permission) error
	DeletePermissions(ctx context.Context, perms []models.Permission) error
}

// Diff describes the drift between a generated catalog and the store.
type Diff struct {
	// New holds generated entries whose key is not stored.
	New []models.Permission
	// Obsolete holds stored entries whose key is not generated.
	Obsolete []models.Permission
	Inserted int
	Removed  int
}

// Reconcile compares res with the store. New entries are inserted when opts.Seed is set and
// obsolete ones deleted when opts.RemoveObsolete is set; otherwise they are only reported.
// A dry run returns a nil Diff without touching the store.
func Reconcile(ctx context.Context, store Store, res *Result, opts Options) (*Diff, error) {
	if opts.DryRun {
		log.Info().Int("permissions", len(res.Permissions)).Msg("dry run, catalog not reconciled")
		return nil, nil
	}

	stored, err := store.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored permissions: %w", err)
	}

	diff := compare(res.Permissions, stored)

	if len(diff.New) > 0 {
		if opts.Seed {
			if err := store.InsertPermissions(ctx, diff.New); err != nil {
				return nil, fmt.Errorf("insert new permissions: %w", err)
			}

			diff.Inserted = len(diff.New)
		} else {
			log.Info().Int("count", len(diff.New)).Msg("new permissions found, run with --seed to insert them")
		}
	}

	if len(diff.Obsolete) > 0 {
		if opts.RemoveObsolete {
			if err := store.DeletePermissions(ctx, diff.Obsolete); err != nil {
				return nil, fmt.Errorf("delete obsolete permissions: %w", err)
			}

			diff.Removed = len(diff.Obsolete)
		} else {
			for _, p := range diff.Obsolete {
				log.Warn().Str("permission", p.Key()).Msg("obsolete permission")
			}
		}
	}

	log.Info().
		Int("new", len(diff.New)).
		Int("obsolete", len(diff.Obsolete)).
		Int("inserted", diff.Inserted).
		Int("removed", diff.Removed).
		Msg("permission catalog reconciled")

	return diff, nil
}

func compare(generated, stored []models.Permission) *Diff {
	storedKeys := make(map[string]struct{}, len(stored))
	for _, p := range stored {
		storedKeys[p.Key()] = struct{}{}
	}

	generatedKeys := make(map[string]struct{}, len(generated))

	diff := &Diff{}

	for _, p := range generated {
		generatedKeys[p.Key()] = struct{}{}

		if _, ok := storedKeys[p.Key()]; !ok {
			diff.New = append(diff.New, p)
		}
	}

	for _, p := range stored {
		if _, ok := generatedKeys[p.Key()]; !ok {
			diff.Obsolete = append(diff.Obsolete, p)
		}
	}

	return diff
}
