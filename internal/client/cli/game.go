package cli

import (
	"context"
	"fmt"
	"time"

	"coinrush-client/internal/client/services"
)

// Points prints the player's score summary.
func (a *App) Points(ctx context.Context) error {
	points, err := a.game.Points(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Points:          %d\n", points.TotalPoints)
	fmt.Fprintf(a.out, "Lifetime points: %d\n", points.LifetimePoints)
	fmt.Fprintf(a.out, "Daily streak:    %d day(s)\n", points.ConsecutiveDays)
	return nil
}

// TapStatusCmd reports whether the daily tap is available and, if not,
// how long until it is.
func (a *App) TapStatusCmd(ctx context.Context) error {
	status, err := a.game.TapStatus(ctx)
	if err != nil {
		return err
	}

	if status.CanTap {
		fmt.Fprintln(a.out, "The coin is ready, go tap it!")
		return nil
	}
	if left := services.Countdown(status.NextAvailableTime, time.Now()); left != "" {
		fmt.Fprintf(a.out, "Next tap in %s\n", left)
	} else {
		fmt.Fprintln(a.out, "The coin is resting, try again later")
	}
	return nil
}

// Tap submits the daily tap and prints what it earned.
func (a *App) Tap(ctx context.Context, coinIndex int) error {
	result, err := a.game.TapCoin(ctx, coinIndex)
	if err != nil {
		return err
	}

	if result.Message != "" {
		fmt.Fprintln(a.out, result.Message)
	} else {
		fmt.Fprintf(a.out, "You earned %d points!\n", result.Points)
	}
	fmt.Fprintf(a.out, "Total: %d points\n", result.TotalPoints)
	if result.PrizeEarned {
		fmt.Fprintf(a.out, "Prize unlocked: %s\n", result.PrizeName)
	}
	return nil
}
