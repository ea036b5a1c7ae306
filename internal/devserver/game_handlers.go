package devserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// prizeMilestones maps lifetime point thresholds to prize names. A prize
// is earned when a tap pushes the lifetime total across a threshold.
var prizeMilestones = []struct {
	points int64
	name   string
}{
	{1000, "Bronze Coin"},
	{5000, "Silver Coin"},
	{10000, "Gold Coin"},
	{50000, "Diamond Coin"},
}

// crossedMilestone returns the highest prize unlocked between two
// lifetime totals.
func crossedMilestone(before, after int64) (string, bool) {
	name, earned := "", false
	for _, m := range prizeMilestones {
		if before < m.points && after >= m.points {
			name, earned = m.name, true
		}
	}
	return name, earned
}

// GET /api/game/points
func (s *Server) points(c *gin.Context) {
	s.state.mu.Lock()
	p := s.state.player(c.GetString("userID"))
	resp := gin.H{
		"success":         true,
		"totalPoints":     p.totalPoints,
		"lifetimePoints":  p.lifetimePoints,
		"consecutiveDays": p.consecutiveDays,
	}
	s.state.mu.Unlock()

	c.JSON(http.StatusOK, resp)
}

// GET /api/game/can-tap
func (s *Server) canTap(c *gin.Context) {
	s.state.mu.Lock()
	p := s.state.player(c.GetString("userID"))
	lastTap := p.lastTap
	s.state.mu.Unlock()

	now := s.now()
	next := lastTap.Add(tapCooldown)
	if lastTap.IsZero() || !now.Before(next) {
		c.JSON(http.StatusOK, gin.H{"success": true, "canTap": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"canTap":            false,
		"nextAvailableTime": next.UTC().Format(time.RFC3339),
		"hoursUntilNextTap": next.Sub(now).Hours(),
	})
}

// POST /api/game/tap-coin {coinIndex}
func (s *Server) tapCoin(c *gin.Context) {
	var req struct {
		CoinIndex int `json:"coinIndex"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid tap payload")
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p := s.state.player(c.GetString("userID"))
	now := s.now()

	if !p.lastTap.IsZero() && now.Before(p.lastTap.Add(tapCooldown)) {
		left := p.lastTap.Add(tapCooldown).Sub(now)
		fail(c, http.StatusBadRequest, fmt.Sprintf("You can tap again in %d hour(s)", int(left.Hours())+1))
		return
	}

	// streak continues while taps stay within the grace window
	if !p.lastTap.IsZero() && now.Sub(p.lastTap) < streakGrace {
		p.consecutiveDays++
	} else {
		p.consecutiveDays = 1
	}

	points := int64(10 + s.randInt(91))
	before := p.lifetimePoints
	p.totalPoints += points
	p.lifetimePoints += points
	p.lastTap = now

	prizeName, prizeEarned := crossedMilestone(before, p.lifetimePoints)

	resp := gin.H{
		"success":           true,
		"points":            points,
		"totalPoints":       p.totalPoints,
		"message":           fmt.Sprintf("You earned %d points!", points),
		"nextAvailableTime": now.Add(tapCooldown).UTC().Format(time.RFC3339),
	}
	if prizeEarned {
		resp["prizeEarned"] = true
		resp["prizeName"] = prizeName
	}
	c.JSON(http.StatusOK, resp)
}
