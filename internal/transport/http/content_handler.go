package http

import (
	"github.com/gofiber/fiber/v2"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// ContentHandler serves category, question and product management. Public
// listings expose active records only; full CRUD sits behind the admin guard.
type ContentHandler struct {
	categories *app.CategoryService
	questions  *app.QuestionService
	catalog    *app.CatalogService
}

func NewContentHandler(categories *app.CategoryService, questions *app.QuestionService, catalog *app.CatalogService) *ContentHandler {
	return &ContentHandler{categories: categories, questions: questions, catalog: catalog}
}

type categoryView struct {
	ID      string  `json:"id"`
	NameAR  string  `json:"name_ar"`
	NameEN  string  `json:"name_en"`
	IconURL *string `json:"icon_url"`
	Active  bool    `json:"active"`
	Order   int     `json:"order"`
}

type categoryRequest struct {
	NameAR  string  `json:"name_ar"`
	NameEN  string  `json:"name_en"`
	IconURL *string `json:"icon_url"`
	Active  *bool   `json:"active"`
	Order   *int    `json:"order"`
}

type questionView struct {
	ID         string                `json:"id"`
	CategoryID string                `json:"category_id"`
	Level      int                   `json:"level"`
	Points     int                   `json:"points"`
	Prompt     domain.ContentBlock   `json:"prompt"`
	Hint       domain.Hint           `json:"hint"`
	Answer     *domain.ContentBlock  `json:"answer"`
	Status     domain.QuestionStatus `json:"status"`
}

type questionRequest struct {
	CategoryID string                `json:"category_id"`
	Level      int                   `json:"level"`
	Prompt     domain.ContentBlock   `json:"prompt"`
	Hint       *domain.Hint          `json:"hint"`
	Answer     *domain.ContentBlock  `json:"answer"`
	Status     domain.QuestionStatus `json:"status"`
}

type productView struct {
	ID           string             `json:"id"`
	NameAR       string             `json:"name_ar"`
	NameEN       string             `json:"name_en"`
	Type         domain.ProductType `json:"type"`
	Rounds       *int               `json:"rounds"`
	PriceDisplay *string            `json:"price_display"`
	Active       bool               `json:"active"`
}

type productRequest struct {
	NameAR       string             `json:"name_ar"`
	NameEN       string             `json:"name_en"`
	Type         domain.ProductType `json:"type"`
	Rounds       *int               `json:"rounds"`
	PriceDisplay *string            `json:"price_display"`
	Active       *bool              `json:"active"`
}

func (h *ContentHandler) ListCategories(c *fiber.Ctx) error {
	activeOnly := !isAdminCaller(c) || c.QueryBool("active_only", false)
	categories, err := h.categories.List(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	out := make([]categoryView, 0, len(categories))
	for _, cat := range categories {
		out = append(out, toCategoryView(cat))
	}
	return c.JSON(out)
}

func (h *ContentHandler) GetCategory(c *fiber.Ctx) error {
	cat, err := h.categories.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toCategoryView(cat))
}

func (h *ContentHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	cat, err := h.categories.Create(c.UserContext(), app.CategoryInput{
		NameAR: req.NameAR, NameEN: req.NameEN, IconURL: req.IconURL,
		Active: req.Active, Order: req.Order,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toCategoryView(cat))
}

func (h *ContentHandler) UpdateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	cat, err := h.categories.Update(c.UserContext(), c.Params("id"), app.CategoryInput{
		NameAR: req.NameAR, NameEN: req.NameEN, IconURL: req.IconURL,
		Active: req.Active, Order: req.Order,
	})
	if err != nil {
		return err
	}
	return c.JSON(toCategoryView(cat))
}

func (h *ContentHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ContentHandler) ListQuestions(c *fiber.Ctx) error {
	filter := app.QuestionFilter{
		CategoryID: c.Query("category_id"),
		Level:      c.QueryInt("level", 0),
		Status:     domain.QuestionStatus(c.Query("status")),
		Offset:     c.QueryInt("offset", 0),
		Limit:      c.QueryInt("limit", 0),
	}
	questions, err := h.questions.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]questionView, 0, len(questions))
	for _, q := range questions {
		out = append(out, toQuestionView(q))
	}
	return c.JSON(out)
}

func (h *ContentHandler) GetQuestion(c *fiber.Ctx) error {
	q, err := h.questions.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toQuestionView(q))
}

func (h *ContentHandler) CreateQuestion(c *fiber.Ctx) error {
	var req questionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	q, err := h.questions.Create(c.UserContext(), app.QuestionInput{
		CategoryID: req.CategoryID, Level: req.Level, Prompt: req.Prompt,
		Hint: req.Hint, Answer: req.Answer, Status: req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toQuestionView(q))
}

func (h *ContentHandler) UpdateQuestion(c *fiber.Ctx) error {
	var req questionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	q, err := h.questions.Update(c.UserContext(), c.Params("id"), app.QuestionInput{
		CategoryID: req.CategoryID, Level: req.Level, Prompt: req.Prompt,
		Hint: req.Hint, Answer: req.Answer, Status: req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(toQuestionView(q))
}

func (h *ContentHandler) DeleteQuestion(c *fiber.Ctx) error {
	if err := h.questions.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ContentHandler) ListProducts(c *fiber.Ctx) error {
	activeOnly := !isAdminCaller(c)
	products, err := h.catalog.List(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	return c.JSON(out)
}

func (h *ContentHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	p, err := h.catalog.Create(c.UserContext(), app.ProductInput{
		NameAR: req.NameAR, NameEN: req.NameEN, Type: req.Type,
		Rounds: req.Rounds, PriceDisplay: req.PriceDisplay, Active: req.Active,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toProductView(p))
}

func (h *ContentHandler) UpdateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	p, err := h.catalog.Update(c.UserContext(), c.Params("id"), app.ProductInput{
		NameAR: req.NameAR, NameEN: req.NameEN, Type: req.Type,
		Rounds: req.Rounds, PriceDisplay: req.PriceDisplay, Active: req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(toProductView(p))
}

func (h *ContentHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.catalog.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func isAdminCaller(c *fiber.Ctx) bool {
	isAdmin, _ := c.Locals(localIsAdmin).(bool)
	return isAdmin
}

func toCategoryView(cat *domain.Category) categoryView {
	return categoryView{
		ID: cat.ID, NameAR: cat.NameAR, NameEN: cat.NameEN,
		IconURL: cat.IconURL, Active: cat.Active, Order: cat.Order,
	}
}

func toQuestionView(q *domain.Question) questionView {
	return questionView{
		ID: q.ID, CategoryID: q.CategoryID, Level: q.Level, Points: q.Points,
		Prompt: q.Prompt, Hint: q.Hint, Answer: q.Answer, Status: q.Status,
	}
}

func toProductView(p *domain.Product) productView {
	return productView{
		ID: p.ID, NameAR: p.NameAR, NameEN: p.NameEN, Type: p.Type,
		Rounds: p.Rounds, PriceDisplay: p.PriceDisplay, Active: p.Active,
	}
}
