package services

import (
	"context"
	"fmt"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/google/uuid"
)

// SettingsService reads and writes the non-PIN parts of SessionState
type SettingsService struct {
	states repository.SessionStates
}

func NewSettingsService(states repository.SessionStates) *SettingsService {
	return &SettingsService{states: states}
}

func (s *SettingsService) Theme(ctx context.Context, userID uuid.UUID) (models.Theme, error) {
	state, err := s.states.Load(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load session state: %w", err)
	}
	if state.Theme == "" {
		return models.ThemeLight, nil
	}
	return state.Theme, nil
}

func (s *SettingsService) SetTheme(ctx context.Context, userID uuid.UUID, theme models.Theme) (models.Theme, error) {
	if theme != models.ThemeLight && theme != models.ThemeDark {
		return "", NewValidationError("theme", "must be light or dark")
	}
	state, err := s.states.Load(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load session state: %w", err)
	}
	state.Theme = theme
	if err := s.states.Save(ctx, state); err != nil {
		return "", fmt.Errorf("save session state: %w", err)
	}
	return theme, nil
}
