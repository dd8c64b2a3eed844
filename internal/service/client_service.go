package service

import (
	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/pkg/serverutils"
)

type IClientService interface {
	// Issue returns a token for a new device, or renews the token of clientID.
	Issue(clientID string) (*dto.ClientTokenResponse, error)
	Verify(token string) (string, error)
}

type clientService struct {
	tokens *serverutils.ClientTokens
}

func NewClientService(tokens *serverutils.ClientTokens) IClientService {
	return &clientService{tokens: tokens}
}

func (s *clientService) Issue(clientID string) (*dto.ClientTokenResponse, error) {
	token, id, expiresAt, err := s.tokens.Issue(clientID)
	if err != nil {
		return nil, err
	}
	return &dto.ClientTokenResponse{
		Token:     token,
		ClientID:  id,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *clientService) Verify(token string) (string, error) {
	return s.tokens.Verify(token)
}
