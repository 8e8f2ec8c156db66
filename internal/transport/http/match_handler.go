package http

import (
	"github.com/gofiber/fiber/v2"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// MatchHandler serves the match lifecycle routes. Every route requires auth;
// ownership checks live in the service.
type MatchHandler struct {
	matches *app.MatchService
}

func NewMatchHandler(matches *app.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

type createMatchRequest struct {
	SelectedCategoryIDs []string `json:"selected_category_ids"`
	TeamAName           string   `json:"team_a_name"`
	TeamBName           string   `json:"team_b_name"`
	TimerSeconds        int      `json:"timer_seconds"`
}

type nextQuestionRequest struct {
	CategoryID string `json:"category_id"`
	Level      int    `json:"level"`
}

type judgeRequest struct {
	RoundNo        int    `json:"round_no"`
	JudgeSelection string `json:"judge_selection"`
}

type patchTeamsRequest struct {
	TeamAName  *string `json:"team_a_name"`
	TeamBName  *string `json:"team_b_name"`
	AvatarKeyA *string `json:"avatar_key_a"`
	AvatarKeyB *string `json:"avatar_key_b"`
}

func (h *MatchHandler) Create(c *fiber.Ctx) error {
	var req createMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	view, err := h.matches.Create(c.UserContext(), callerID(c), req.SelectedCategoryIDs,
		req.TeamAName, req.TeamBName, req.TimerSeconds)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *MatchHandler) List(c *fiber.Ctx) error {
	status := domain.MatchStatus(c.Query("status"))
	views, err := h.matches.List(c.UserContext(), callerID(c), status,
		c.QueryInt("offset", 0), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	if views == nil {
		views = []*app.MatchView{}
	}
	return c.JSON(views)
}

func (h *MatchHandler) Get(c *fiber.Ctx) error {
	view, err := h.matches.Get(c.UserContext(), c.Params("id"), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *MatchHandler) Delete(c *fiber.Ctx) error {
	if err := h.matches.Delete(c.UserContext(), c.Params("id"), callerID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MatchHandler) NextQuestion(c *fiber.Ctx) error {
	var req nextQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	result, err := h.matches.NextQuestion(c.UserContext(), c.Params("id"), callerID(c),
		req.CategoryID, req.Level)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *MatchHandler) RoundHint(c *fiber.Ctx) error {
	roundNo, err := c.ParamsInt("round_no")
	if err != nil {
		return domain.ErrRoundNotFound
	}
	hint, err := h.matches.RoundHint(c.UserContext(), c.Params("id"), callerID(c), roundNo)
	if err != nil {
		return err
	}
	return c.JSON(hint)
}

func (h *MatchHandler) RoundAnswer(c *fiber.Ctx) error {
	roundNo, err := c.ParamsInt("round_no")
	if err != nil {
		return domain.ErrRoundNotFound
	}
	answer, err := h.matches.RoundAnswer(c.UserContext(), c.Params("id"), callerID(c), roundNo)
	if err != nil {
		return err
	}
	return c.JSON(answer)
}

func (h *MatchHandler) Judge(c *fiber.Ctx) error {
	var req judgeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	result, err := h.matches.Judge(c.UserContext(), c.Params("id"), callerID(c),
		req.RoundNo, domain.JudgeSelection(req.JudgeSelection))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *MatchHandler) Finish(c *fiber.Ctx) error {
	result, err := h.matches.Finish(c.UserContext(), c.Params("id"), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *MatchHandler) PatchTeams(c *fiber.Ctx) error {
	var req patchTeamsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	view, err := h.matches.PatchTeams(c.UserContext(), c.Params("id"), callerID(c), app.TeamsPatch{
		TeamAName:  req.TeamAName,
		TeamBName:  req.TeamBName,
		AvatarKeyA: req.AvatarKeyA,
		AvatarKeyB: req.AvatarKeyB,
	})
	if err != nil {
		return err
	}
	return c.JSON(view)
}
