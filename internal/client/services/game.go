package services

import (
	"context"
	"fmt"
	"time"

	"coinrush-client/internal/client/api"
	"coinrush-client/internal/models"
)

// GameService relays the daily tap-a-coin game. All rules (points rolled,
// 24h cooldown, prize eligibility) live on the server; the client only
// sends the tapped coin index and displays what comes back.
type GameService interface {
	Points(ctx context.Context) (*models.PointsStatus, error)
	TapStatus(ctx context.Context) (*models.TapStatus, error)
	TapCoin(ctx context.Context, coinIndex int) (*models.TapResult, error)
}

type gameService struct {
	client api.Client
}

func NewGameService(client api.Client) GameService {
	return &gameService{client: client}
}

func (g *gameService) Points(ctx context.Context) (*models.PointsStatus, error) {
	var resp struct {
		Success bool `json:"success"`
		models.PointsStatus
	}
	if err := g.client.Get(ctx, "/game/points", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("game points: %w", api.ErrMalformedResponse)
	}
	return &resp.PointsStatus, nil
}

func (g *gameService) TapStatus(ctx context.Context) (*models.TapStatus, error) {
	var resp struct {
		Success bool `json:"success"`
		models.TapStatus
	}
	if err := g.client.Get(ctx, "/game/can-tap", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("game tap status: %w", api.ErrMalformedResponse)
	}
	return &resp.TapStatus, nil
}

func (g *gameService) TapCoin(ctx context.Context, coinIndex int) (*models.TapResult, error) {
	var resp struct {
		Success bool `json:"success"`
		models.TapResult
	}
	err := g.client.Post(ctx, "/game/tap-coin", map[string]int{"coinIndex": coinIndex}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("tap coin: %w", api.ErrMalformedResponse)
	}
	return &resp.TapResult, nil
}

// Countdown renders the time left until nextAvailable as HH:MM:SS, the
// format the game screen counts down in. Returns "" once the moment has
// passed. nextAvailable is the RFC 3339 timestamp the server sent.
func Countdown(nextAvailable string, now time.Time) string {
	target, err := time.Parse(time.RFC3339, nextAvailable)
	if err != nil {
		return ""
	}
	left := target.Sub(now)
	if left <= 0 {
		return ""
	}
	h := int(left.Hours())
	m := int(left.Minutes()) % 60
	s := int(left.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
