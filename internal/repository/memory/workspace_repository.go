package memory

import (
	"time"

	"trend-finder-be/pkg/workspace"

	"github.com/patrickmn/go-cache"
)

// WorkspaceRepository keeps live workspaces in memory. Idle workspaces expire
// after ttl and are closed on eviction; their persisted state stays in the kv store.
type WorkspaceRepository struct {
	cache *cache.Cache
}

func NewWorkspaceRepository(ttl time.Duration) *WorkspaceRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, ttl/6)
	c.OnEvicted(func(_ string, v interface{}) {
		if ws, ok := v.(*workspace.Workspace); ok {
			ws.Close()
		}
	})
	return &WorkspaceRepository{
		cache: c,
	}
}

func (r *WorkspaceRepository) Save(ws *workspace.Workspace) {
	r.cache.Set(ws.ClientID(), ws, cache.DefaultExpiration)
}

// Get returns the workspace and extends its lifetime.
func (r *WorkspaceRepository) Get(clientID string) (*workspace.Workspace, bool) {
	x, found := r.cache.Get(clientID)
	if !found {
		return nil, false
	}
	ws := x.(*workspace.Workspace)
	r.cache.Set(clientID, ws, cache.DefaultExpiration)
	return ws, true
}

func (r *WorkspaceRepository) Delete(clientID string) {
	r.cache.Delete(clientID)
}

// DeleteAll evicts every workspace, closing each one.
func (r *WorkspaceRepository) DeleteAll() {
	for clientID := range r.cache.Items() {
		r.cache.Delete(clientID)
	}
}

func (r *WorkspaceRepository) Count() int {
	return r.cache.ItemCount()
}
