// Package interactiontest builds in-memory recorders for tests of tracked
// entity packages.
package interactiontest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/builder"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/store"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/visibility"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// Directory is an in-memory actor directory.
type Directory struct {
	mu     sync.RWMutex
	actors map[uuid.UUID]models.Actor
}

// Add registers an actor and returns a context acting as it.
func (d *Directory) Add(ctx context.Context, username string, role domain.Role) context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.actors == nil {
		d.actors = make(map[uuid.UUID]models.Actor)
	}
	id := uuid.New()
	d.actors[id] = models.Actor{ID: id, Username: username, Role: role}
	ctx = requestcontext.WithUserID(ctx, id)
	return requestcontext.WithRole(ctx, role)
}

// Actor implements builder.ActorDirectory.
func (d *Directory) Actor(_ context.Context, id uuid.UUID) (*models.Actor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.actors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

// Env is a recorder over in-memory storage.
type Env struct {
	Recorder  *service.Recorder
	Store     *store.InMemory
	Tx        *service.ShardedTx
	Directory *Directory
}

// New builds an Env. fields may be nil; policy defaults to admins and
// managers.
func New(fields visibility.FieldRules, policy *visibility.Policy) *Env {
	p := visibility.DefaultPolicy()
	if policy != nil {
		p = *policy
	}
	env := &Env{Store: store.NewInMemory(), Tx: service.NewShardedTx(time.Second), Directory: &Directory{}}
	env.Recorder = service.New(env.Store, env.Tx, builder.New(env.Directory),
		visibility.NewFilter(p, fields),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return env
}

// History returns the raw stored records of an entity, newest first.
func (e *Env) History(et models.EntityType, id uuid.UUID) []models.Record {
	records, err := e.Store.FindAllByEntityID(context.Background(), et, id)
	if err != nil {
		panic(err)
	}
	return records
}
