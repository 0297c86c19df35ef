package server

import (
	"strconv"
	"time"

	"arcade/models"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	defaultHistoryLimit     = 20
	maxHistoryLimit         = 100
)

type handlers struct {
	deps      Deps
	jwtSecret []byte
	tokenTTL  time.Duration
}

type registerRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type registerResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type submitScoreRequest struct {
	GameName string `json:"game_name"`
	Score    *int64 `json:"score"`
}

type submitScoreResponse struct {
	Stats        *models.UpdatedStats            `json:"stats"`
	Unlocked     []*models.AchievementDefinition `json:"unlocked"`
	LevelsGained []int                           `json:"levels_gained"`
}

type evaluationResponse struct {
	User         *models.User                    `json:"user"`
	Unlocked     []*models.AchievementDefinition `json:"unlocked"`
	LevelsGained []int                           `json:"levels_gained"`
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handlers) registerUser(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.deps.Users.Register(c.UserContext(), req.DisplayName, req.AvatarURL)
	if err != nil {
		return err
	}

	token, err := IssueToken(h.jwtSecret, user.ID, h.tokenTTL)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(registerResponse{User: user, Token: token})
}

func (h *handlers) getUser(c *fiber.Ctx) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	profile, err := h.deps.Users.GetProfile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *handlers) getUserAchievements(c *fiber.Ctx) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	list, err := h.deps.Users.GetAchievements(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"achievements": list})
}

func (h *handlers) getUserScores(c *fiber.Ctx) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	limit := clampLimit(c.QueryInt("limit", defaultHistoryLimit), maxHistoryLimit)
	scores, err := h.deps.Users.GetScoreHistory(c.UserContext(), userID, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"scores": scores})
}

func (h *handlers) submitScore(c *fiber.Ctx) error {
	var req submitScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Score == nil {
		return fiber.NewError(fiber.StatusBadRequest, "score is required")
	}

	userID := c.Locals(localUserID).(int64)
	result, err := h.deps.Scores.SubmitScore(c.UserContext(), userID, req.GameName, *req.Score)
	if err != nil {
		return err
	}

	return c.JSON(submitScoreResponse{
		Stats:        result.Stats,
		Unlocked:     nonNil(result.Unlocked),
		LevelsGained: nonNilInts(result.LevelsGained),
	})
}

func (h *handlers) reevaluate(c *fiber.Ctx) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}
	if c.Locals(localUserID).(int64) != userID {
		return fiber.NewError(fiber.StatusForbidden, "token does not belong to this user")
	}

	result, err := h.deps.Achievements.Reevaluate(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(evaluationResponse{
		User:         result.User,
		Unlocked:     nonNil(result.Unlocked),
		LevelsGained: nonNilInts(result.LevelsGained),
	})
}

func (h *handlers) listAchievements(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"achievements": h.deps.Achievements.Catalog()})
}

func (h *handlers) getLeaderboard(c *fiber.Ctx) error {
	if h.deps.Metrics != nil {
		defer h.deps.Metrics.MeasureLeaderboard()()
	}

	limit := clampLimit(c.QueryInt("limit", defaultLeaderboardLimit), maxLeaderboardLimit)
	entries, err := h.deps.Leaderboard.GetLeaderboard(c.UserContext(), limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*models.LeaderboardEntry{}
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func (h *handlers) getUserRank(c *fiber.Ctx) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	entry, err := h.deps.Leaderboard.GetUserRank(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

func pathUserID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

// clampLimit bounds a query limit to 1..max
func clampLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}

func nonNil(defs []*models.AchievementDefinition) []*models.AchievementDefinition {
	if defs == nil {
		return []*models.AchievementDefinition{}
	}
	return defs
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
