// Package devserver is a self-contained CoinRush backend for local
// development: in-memory accounts, short-lived HS256 tokens and the
// daily tap game, speaking the same JSON envelope as the production API.
package devserver

import (
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coinrush-client/internal/cryptox"
)

const (
	tokenTTL       = 15 * time.Minute
	resendCooldown = time.Minute
	tapCooldown    = 24 * time.Hour
	streakGrace    = 48 * time.Hour
)

type Server struct {
	log    *logrus.Logger
	secret []byte
	state  *state

	// now and randInt are swappable so tests can pin time and rolls.
	now     func() time.Time
	randInt func(n int) int
}

func New(log *logrus.Logger) *Server {
	return &Server{
		log:     log,
		secret:  cryptox.GenerateRandBytes(32),
		state:   newState(),
		now:     time.Now,
		randInt: rand.IntN,
	}
}

// Router builds the full route table under /api.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	api := r.Group("/api")
	api.GET("/health", s.health)

	auth := api.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/register", s.register)
	auth.POST("/send-verification", s.sendVerification)
	auth.POST("/verify-and-register", s.verifyAndRegister)
	auth.POST("/resend-otp", s.resendOTP)
	auth.POST("/refresh-token", s.refreshToken)
	auth.POST("/logout", s.logout)
	auth.POST("/reset-password", s.requestPasswordReset)
	auth.POST("/verify-reset-password", s.verifyResetPassword)
	auth.GET("/profile", s.requireAuth(), s.profile)
	auth.PUT("/update-profile", s.requireAuth(), s.updateProfile)

	game := api.Group("/game", s.requireAuth())
	game.GET("/points", s.points)
	game.GET("/can-tap", s.canTap)
	game.POST("/tap-coin", s.tapCoin)

	return r
}

// Run blocks serving the API on addr.
func (s *Server) Run(addr string) error {
	s.log.WithField("addr", addr).Info("dev server listening")
	return s.Router().Run(addr)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) health(c *gin.Context) {
	ok(c, "ok", nil)
}

// ok writes the success envelope, with data omitted when nil.
func ok(c *gin.Context, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// fail writes the failure envelope.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// sixDigitCode rolls a zero-padded one-time code.
func (s *Server) sixDigitCode() string {
	const digits = "0123456789"
	code := make([]byte, 6)
	for i := range code {
		code[i] = digits[s.randInt(len(digits))]
	}
	return string(code)
}
