package service

import (
	"context"
	"sync"

	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/repository/kv"
	"trend-finder-be/internal/repository/memory"
	"trend-finder-be/pkg/workspace"
)

// IWorkspaceService hands out the live workspace of a client device, opening
// it from storage on first use.
type IWorkspaceService interface {
	Get(ctx context.Context, clientID string) *workspace.Workspace
	Active() int
	// CloseAll closes every live workspace; their persisted state is kept.
	CloseAll()
}

type workspaceService struct {
	mu    sync.Mutex
	repo  *memory.WorkspaceRepository
	store kv.Store
	deps  workspace.Dependencies
	log   logger.ILogger
}

// NewWorkspaceService builds workspaces from deps; deps.Store is replaced by
// the device-scoped view of store.
func NewWorkspaceService(repo *memory.WorkspaceRepository, store kv.Store, deps workspace.Dependencies, log logger.ILogger) IWorkspaceService {
	return &workspaceService{
		repo:  repo,
		store: store,
		deps:  deps,
		log:   log,
	}
}

func (s *workspaceService) Get(ctx context.Context, clientID string) *workspace.Workspace {
	if ws, ok := s.repo.Get(clientID); ok {
		return ws
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.repo.Get(clientID); ok {
		return ws
	}

	deps := s.deps
	deps.Store = kv.WithPrefix(s.store, kv.ClientPrefix(clientID))
	ws := workspace.New(context.WithoutCancel(ctx), clientID, deps)
	s.repo.Save(ws)

	s.log.Info("WORKSPACE", "Workspace opened", map[string]interface{}{
		"client_id": clientID,
		"active":    s.repo.Count(),
	})
	return ws
}

func (s *workspaceService) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo.DeleteAll()
}

func (s *workspaceService) Active() int {
	return s.repo.Count()
}
