package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type guessRequest struct {
	Number *int `json:"number"`
}

type guessResponse struct {
	Message      string `json:"message"`
	ServerNumber int    `json:"serverNumber"`
	Score        int    `json:"score"`
	Turns        int    `json:"turns"`
}

type turnsResponse struct {
	Message   string `json:"message"`
	TurnsLeft int    `json:"turnsLeft"`
}

type leaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type profileResponse struct {
	Email string `json:"email"`
	Score int    `json:"score"`
	Turns int    `json:"turns"`
}

type paymentResponse struct {
	OrderID string `json:"orderId"`
	PayURL  string `json:"payUrl"`
	Message string `json:"message"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	if _, err := s.accounts.Register(c.Request.Context(), req.Username, req.Password, req.Email); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
			return
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := s.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header(common.AuthorizationHeaderName, common.BearerPrefix+token)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) guess(c *gin.Context) {
	var req guessRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Number == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "number is required"})
		return
	}

	requestID := c.GetHeader(common.IdempotencyKeyHeaderName)
	res, err := s.game.Guess(c.Request.Context(), currentUser(c), *req.Number, requestID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, guessResponse{
		Message:      res.Message,
		ServerNumber: res.ServerNumber,
		Score:        res.Score,
		Turns:        res.Turns,
	})
}

func (s *Server) buyTurns(c *gin.Context) {
	p, err := s.game.BuyTurns(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turnsResponse{Message: p.Message, TurnsLeft: p.TurnsLeft})
}

func (s *Server) leaderboard(c *gin.Context) {
	top, err := s.game.Leaderboard(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]leaderboardEntry, 0, len(top))
	for _, e := range top {
		out = append(out, leaderboardEntry{Username: e.Username, Score: e.Score})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) me(c *gin.Context) {
	u, err := s.accounts.Profile(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse{Email: u.Email, Score: u.Score, Turns: u.Turns})
}

func (s *Server) createPayment(c *gin.Context) {
	o, err := s.payments.Create(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse{
		OrderID: o.ID,
		PayURL:  o.PayURL,
		Message: "Please press 'Confirm payment' to buy turns!",
	})
}

func (s *Server) confirmPayment(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	turns, err := s.payments.Confirm(c.Request.Context(), currentUser(c), orderID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turnsResponse{
		Message:   fmt.Sprintf("Payment confirmed via MoMo (simulated). Current turns: %d", turns),
		TurnsLeft: turns,
	})
}
