package models

// Game state is entirely server-owned; the client only relays the coin
// index and displays whatever comes back.

// PointsStatus mirrors GET /game/points.
type PointsStatus struct {
	TotalPoints     int64 `json:"totalPoints"`
	LifetimePoints  int64 `json:"lifetimePoints"`
	ConsecutiveDays int   `json:"consecutiveDays"`
}

// TapStatus mirrors GET /game/can-tap.
type TapStatus struct {
	CanTap            bool    `json:"canTap"`
	NextAvailableTime string  `json:"nextAvailableTime,omitempty"`
	HoursUntilNextTap float64 `json:"hoursUntilNextTap,omitempty"`
}

// TapResult mirrors POST /game/tap-coin.
type TapResult struct {
	Points            int64  `json:"points,omitempty"`
	TotalPoints       int64  `json:"totalPoints,omitempty"`
	Message           string `json:"message,omitempty"`
	NextAvailableTime string `json:"nextAvailableTime,omitempty"`
	PrizeEarned       bool   `json:"prizeEarned,omitempty"`
	PrizeName         string `json:"prizeName,omitempty"`
}
