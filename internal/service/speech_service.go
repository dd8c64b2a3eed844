package service

import (
	"context"
	"io"

	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/websocket"
)

type ISpeechService interface {
	Play(ctx context.Context, clientID string, req *dto.SpeakRequest) (*dto.PlaybackResponse, error)
	Stop(ctx context.Context, clientID string) *dto.StopSpeechResponse
	WriteWAV(ctx context.Context, clientID string, req *dto.SpeakRequest, out io.Writer) error
}

type speechService struct {
	workspaces IWorkspaceService
	hub        *websocket.Hub
}

func NewSpeechService(workspaces IWorkspaceService, hub *websocket.Hub) ISpeechService {
	return &speechService{
		workspaces: workspaces,
		hub:        hub,
	}
}

// Play synthesizes the text and streams it to the client's sockets,
// replacing whatever the client was hearing. It returns once playback started.
func (s *speechService) Play(ctx context.Context, clientID string, req *dto.SpeakRequest) (*dto.PlaybackResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)
	if _, err := ws.Speak(ctx, req.Text, websocket.NewAudioSink(s.hub, clientID)); err != nil {
		return nil, err
	}
	return &dto.PlaybackResponse{
		Playing:         true,
		SocketConnected: s.hub.Connected(clientID),
	}, nil
}

func (s *speechService) Stop(ctx context.Context, clientID string) *dto.StopSpeechResponse {
	return &dto.StopSpeechResponse{Stopped: s.workspaces.Get(ctx, clientID).StopSpeech()}
}

func (s *speechService) WriteWAV(ctx context.Context, clientID string, req *dto.SpeakRequest, out io.Writer) error {
	return s.workspaces.Get(ctx, clientID).SynthesizeWAV(ctx, req.Text, out)
}
