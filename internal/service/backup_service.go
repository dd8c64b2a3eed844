package service

import (
	"context"
	"time"

	"trend-finder-be/internal/dto"
	"trend-finder-be/pkg/i18n"
	"trend-finder-be/pkg/workspace"
)

type IBackupService interface {
	// Export returns the indented backup document and its download file name.
	Export(ctx context.Context, clientID string) ([]byte, string, error)
	Import(ctx context.Context, clientID string, data []byte) (*dto.ImportResponse, error)
}

type backupService struct {
	workspaces IWorkspaceService
	now        func() time.Time
}

func NewBackupService(workspaces IWorkspaceService) IBackupService {
	return &backupService{
		workspaces: workspaces,
		now:        time.Now,
	}
}

func (s *backupService) Export(ctx context.Context, clientID string) ([]byte, string, error) {
	data, err := s.workspaces.Get(ctx, clientID).ExportJSON(ctx)
	if err != nil {
		return nil, "", err
	}
	return data, workspace.ExportFileName(s.now()), nil
}

func (s *backupService) Import(ctx context.Context, clientID string, data []byte) (*dto.ImportResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)
	if err := ws.ImportJSON(ctx, data); err != nil {
		return nil, err
	}
	// the message follows the language that is active after the import
	lang := ws.Preferences(ctx).Language
	return &dto.ImportResponse{Message: i18n.T(lang, i18n.MsgImportSuccess)}, nil
}
