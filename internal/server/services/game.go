package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/logging"
	"github.com/dmitrijs2005/guessgame/internal/server/config"
	"github.com/dmitrijs2005/guessgame/internal/server/game"
	"github.com/dmitrijs2005/guessgame/internal/server/ledger"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
)

// GuessResult is what a player sees after a guess.
type GuessResult struct {
	Message      string
	ServerNumber int
	Score        int
	Turns        int
	Won          bool
	// Replayed is set when the result came from the journal for a repeated
	// idempotency key and no turn was spent.
	Replayed bool
}

// Purchase is the outcome of buying turns.
type Purchase struct {
	Message   string
	TurnsLeft int
}

// GameService runs guesses and turn purchases against the ledger.
type GameService struct {
	ledger           *ledger.Ledger
	engine           *game.Engine
	rng              game.Rand
	winScoreBonus    int
	turnsPerPurchase int
	leaderboardSize  int
	logger           logging.Logger
}

func NewGameService(l *ledger.Ledger, e *game.Engine, rng game.Rand, cfg *config.Config, logger logging.Logger) *GameService {
	return &GameService{
		ledger:           l,
		engine:           e,
		rng:              rng,
		winScoreBonus:    cfg.WinScoreBonus,
		turnsPerPurchase: cfg.TurnsPerPurchase,
		leaderboardSize:  cfg.LeaderboardSize,
		logger:           logger.With("module", "game_service"),
	}
}

// Guess spends one of username's turns on number. Invalid guesses and
// exhausted turns leave the ledger untouched. A non-empty requestID that was
// already used by this user returns the earlier result instead of playing
// again.
func (s *GameService) Guess(ctx context.Context, username string, number int, requestID string) (*GuessResult, error) {
	hold, err := s.ledger.LoadForUpdate(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrLockTimeout) {
			s.logger.Warn(ctx, "ledger busy", "username", username, "error", err)
		}
		return nil, err
	}
	defer hold.Release()

	if requestID != "" {
		prev, err := hold.FindGuess(ctx, requestID)
		switch {
		case err == nil:
			res := s.result(prev.Number, prev.ServerNumber, prev.Won, prev.TurnsAfter, prev.ScoreAfter)
			res.Replayed = true
			return res, nil
		case !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
	}

	rec := hold.Record()
	out, err := s.engine.Play(s.rng, number, rec.Turns)
	if err != nil {
		return nil, err
	}

	rec.Turns--
	if out.Won {
		rec.Score += s.winScoreBonus
	}

	entry := &models.Guess{
		RequestID:    requestID,
		Number:       number,
		ServerNumber: out.ServerNumber,
		Won:          out.Won,
	}
	if err := hold.Commit(ctx, entry); err != nil {
		s.logger.Error(ctx, "guess commit failed", "username", username, "error", err)
		return nil, err
	}

	s.logger.Debug(ctx, "guess committed", "username", username, "won", out.Won, "turns", rec.Turns)
	return s.result(number, out.ServerNumber, out.Won, rec.Turns, rec.Score), nil
}

func (s *GameService) result(number, serverNumber int, won bool, turns, score int) *GuessResult {
	msg := fmt.Sprintf("Sorry! You guessed %d, the correct number was %d.", number, serverNumber)
	if won {
		msg = fmt.Sprintf("Congratulations! You guessed the number %d correctly and earned %d point(s).",
			serverNumber, s.winScoreBonus)
	}
	return &GuessResult{
		Message:      msg,
		ServerNumber: serverNumber,
		Score:        score,
		Turns:        turns,
		Won:          won,
	}
}

// GuessErrorMessage renders the player-facing text for a rejected guess.
func (s *GameService) GuessErrorMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidGuess):
		return fmt.Sprintf("The guess must be between 1 and %d!", s.engine.MaxNumber())
	case errors.Is(err, common.ErrNoTurnsRemaining):
		return "You have no turns left! Please buy more turns."
	default:
		return err.Error()
	}
}

// BuyTurns credits TurnsPerPurchase turns. It skips the per-user ledger lock,
// though the store may hold the update until a concurrent guess commits.
func (s *GameService) BuyTurns(ctx context.Context, username string) (*Purchase, error) {
	if _, err := s.ledger.LoadPlain(ctx, username); err != nil {
		return nil, err
	}

	turns, err := s.ledger.AddTurns(ctx, username, s.turnsPerPurchase)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "turns purchased", "username", username, "turns", turns)
	return &Purchase{
		Message:   fmt.Sprintf("You have successfully purchased %d turns.", s.turnsPerPurchase),
		TurnsLeft: turns,
	}, nil
}

// Leaderboard returns the top users by score.
func (s *GameService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return s.ledger.Top(ctx, s.leaderboardSize)
}
