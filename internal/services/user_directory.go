package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"

	"github.com/patrickmn/go-cache"
)

// UserDirectory resolves user references for populate-style joins and keeps
// the identity mirror fresh. Summaries are cached for ttl.
type UserDirectory struct {
	store  UserStore
	cache  *cache.Cache
	synced *cache.Cache
}

// NewUserDirectory creates a directory backed by store
func NewUserDirectory(store UserStore, ttl time.Duration) *UserDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserDirectory{
		store:  store,
		cache:  cache.New(ttl, 2*ttl),
		synced: cache.New(ttl, 2*ttl),
	}
}

// Sync upserts the actor's profile at most once per ttl
func (d *UserDirectory) Sync(ctx context.Context, actor models.Actor) error {
	if actor.ID == "" {
		return nil
	}
	if _, ok := d.synced.Get(actor.ID); ok {
		return nil
	}

	user := &models.User{ID: actor.ID, Name: actor.Name, Email: actor.Email}
	if err := d.store.Upsert(ctx, user); err != nil {
		return err
	}
	d.synced.SetDefault(actor.ID, struct{}{})
	d.cache.Delete(actor.ID)
	return nil
}

// Get returns a user by id. Only users who have made an authenticated
// request are in the mirror.
func (d *UserDirectory) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := d.store.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("User not found or has never signed in")
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail returns a user by email
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := d.store.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("No signed-in user with email %s", email)
		}
		return nil, err
	}
	return user, nil
}

// Summaries resolves ids to summaries. Unknown ids are absent from the map.
// Lookup failures degrade to missing entries so reads never fail on a join.
func (d *UserDirectory) Summaries(ctx context.Context, ids []string) map[string]*models.UserSummary {
	out := make(map[string]*models.UserSummary, len(ids))

	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if v, ok := d.cache.Get(id); ok {
			out[id] = v.(*models.UserSummary)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out
	}

	users, err := d.store.GetMany(ctx, missing)
	if err != nil {
		slog.WarnContext(ctx, "failed to resolve users", "count", len(missing), "error", err)
		return out
	}
	for i := range users {
		summary := users[i].Summary()
		d.cache.SetDefault(summary.ID, summary)
		out[summary.ID] = summary
	}
	return out
}

// Summary resolves a single id, nil when unknown
func (d *UserDirectory) Summary(ctx context.Context, id string) *models.UserSummary {
	return d.Summaries(ctx, []string{id})[id]
}

// DisplayName returns the user's name, falling back to the id
func (d *UserDirectory) DisplayName(ctx context.Context, id string) string {
	if s := d.Summary(ctx, id); s != nil && s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("user %s", id)
}
