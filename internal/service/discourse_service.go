package service

import (
	"context"

	"trend-finder-be/internal/dto"
	"trend-finder-be/pkg/analysis"
	"trend-finder-be/pkg/workspace"
)

type IDiscourseService interface {
	Analyze(ctx context.Context, clientID string, req *dto.AnalyzeRequest, image []byte) (*workspace.Current, error)
	Current(ctx context.Context, clientID string) *workspace.Current

	History(ctx context.Context, clientID string) *dto.HistoryResponse
	SelectHistory(ctx context.Context, clientID string, req *dto.SelectHistoryRequest) (*workspace.Current, error)
	ClearHistory(ctx context.Context, clientID string)

	Favorites(ctx context.Context, clientID string) *dto.FavoritesResponse
	ToggleFavorite(ctx context.Context, clientID string) (*dto.ToggleFavoriteResponse, error)
	SelectFavorite(ctx context.Context, clientID, favoriteID string) (*workspace.Current, error)
	ClearFavorites(ctx context.Context, clientID string)

	Chat(ctx context.Context, clientID string) *dto.ChatResponse
	SendMessage(ctx context.Context, clientID string, req *dto.SendMessageRequest) (*dto.ChatResponse, error)
}

type discourseService struct {
	workspaces IWorkspaceService
}

func NewDiscourseService(workspaces IWorkspaceService) IDiscourseService {
	return &discourseService{workspaces: workspaces}
}

func (s *discourseService) Analyze(ctx context.Context, clientID string, req *dto.AnalyzeRequest, image []byte) (*workspace.Current, error) {
	var img *analysis.Image
	if len(image) > 0 {
		parsed, err := analysis.NewImage(image)
		if err != nil {
			return nil, err
		}
		img = parsed
	}

	current, err := s.workspaces.Get(ctx, clientID).Analyze(ctx, req.Text, img)
	if err != nil {
		return nil, err
	}
	return &current, nil
}

func (s *discourseService) Current(ctx context.Context, clientID string) *workspace.Current {
	current := s.workspaces.Get(ctx, clientID).Current()
	return &current
}

func (s *discourseService) History(ctx context.Context, clientID string) *dto.HistoryResponse {
	return &dto.HistoryResponse{Items: s.workspaces.Get(ctx, clientID).History()}
}

func (s *discourseService) SelectHistory(ctx context.Context, clientID string, req *dto.SelectHistoryRequest) (*workspace.Current, error) {
	current, err := s.workspaces.Get(ctx, clientID).SelectHistory(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return &current, nil
}

func (s *discourseService) ClearHistory(ctx context.Context, clientID string) {
	s.workspaces.Get(ctx, clientID).ClearHistory(ctx)
}

func (s *discourseService) Favorites(ctx context.Context, clientID string) *dto.FavoritesResponse {
	return &dto.FavoritesResponse{Items: s.workspaces.Get(ctx, clientID).Favorites()}
}

func (s *discourseService) ToggleFavorite(ctx context.Context, clientID string) (*dto.ToggleFavoriteResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)
	favorited, err := ws.ToggleFavorite(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ToggleFavoriteResponse{
		IsFavorited: favorited,
		Favorites:   ws.Favorites(),
	}, nil
}

func (s *discourseService) SelectFavorite(ctx context.Context, clientID, favoriteID string) (*workspace.Current, error) {
	current, err := s.workspaces.Get(ctx, clientID).SelectFavorite(ctx, favoriteID)
	if err != nil {
		return nil, err
	}
	return &current, nil
}

func (s *discourseService) ClearFavorites(ctx context.Context, clientID string) {
	s.workspaces.Get(ctx, clientID).ClearFavorites(ctx)
}

func (s *discourseService) Chat(ctx context.Context, clientID string) *dto.ChatResponse {
	ws := s.workspaces.Get(ctx, clientID)
	return &dto.ChatResponse{
		State:    ws.ChatState().String(),
		Messages: ws.Transcript(),
	}
}

// SendMessage returns the model reply. A failed remote call still succeeds
// here; the reply then carries the localized chat error text.
func (s *discourseService) SendMessage(ctx context.Context, clientID string, req *dto.SendMessageRequest) (*dto.ChatResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)
	reply, err := ws.SendMessage(ctx, req.Message)
	if err != nil {
		return nil, err
	}
	return &dto.ChatResponse{
		State:    ws.ChatState().String(),
		Messages: ws.Transcript(),
		Reply:    &reply,
	}, nil
}
