package service

import (
	"context"

	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/entity"
	"trend-finder-be/pkg/preference"
	"trend-finder-be/pkg/workspace"
)

type IPreferenceService interface {
	Get(ctx context.Context, clientID string) *workspace.PreferencesView
	Update(ctx context.Context, clientID string, req *dto.UpdatePreferencesRequest) (*workspace.PreferencesView, error)
}

type preferenceService struct {
	workspaces IWorkspaceService
}

func NewPreferenceService(workspaces IWorkspaceService) IPreferenceService {
	return &preferenceService{workspaces: workspaces}
}

func (s *preferenceService) Get(ctx context.Context, clientID string) *workspace.PreferencesView {
	view := s.workspaces.Get(ctx, clientID).Preferences(ctx)
	return &view
}

func (s *preferenceService) Update(ctx context.Context, clientID string, req *dto.UpdatePreferencesRequest) (*workspace.PreferencesView, error) {
	patch := preference.Patch{
		FontScale:    req.FontScale,
		ReadingSpeed: req.ReadingSpeed,
	}
	if req.Language != nil {
		lang := entity.Language(*req.Language)
		patch.Language = &lang
	}

	view, err := s.workspaces.Get(ctx, clientID).UpdatePreferences(ctx, patch)
	if err != nil {
		return nil, err
	}
	return &view, nil
}
