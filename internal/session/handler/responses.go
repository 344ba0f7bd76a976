package handler

import (
	"time"

	"schemeflow/internal/session/models"
)

type MessageResponse struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type SessionResponse struct {
	SessionID    string            `json:"sessionId"`
	Language     string            `json:"language"`
	History      []MessageResponse `json:"history"`
	Context      map[string]string `json:"context"`
	Applications map[string]string `json:"applications"`
	CreatedAt    time.Time         `json:"createdAt"`
	ExpiresAt    time.Time         `json:"expiresAt"`
}

func toSessionResponse(s *models.Session) SessionResponse {
	history := make([]MessageResponse, 0, len(s.History))
	for _, m := range s.History {
		history = append(history, MessageResponse{Role: string(m.Role), Content: m.Content, At: m.At})
	}
	apps := make(map[string]string, len(s.Applications))
	for schemeID, appID := range s.Applications {
		apps[string(schemeID)] = appID.String()
	}
	sessionContext := s.Context
	if sessionContext == nil {
		sessionContext = map[string]string{}
	}
	return SessionResponse{
		SessionID:    s.ID.String(),
		Language:     s.Language,
		History:      history,
		Context:      sessionContext,
		Applications: apps,
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
	}
}
