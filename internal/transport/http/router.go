// Package http wires the REST surface on top of Fiber.
package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"trivia-match-service/internal/app"
)

// Deps collects everything the router needs. Media may be nil when object
// storage is not configured.
type Deps struct {
	Auth    *app.AuthService
	OTP     *app.OTPService
	Tokens  *app.TokenIssuer
	Matches *app.MatchService
	Wallet  *app.WalletService
	Catalog *app.CatalogService

	Categories *app.CategoryService
	Questions  *app.QuestionService

	Media Uploader
	Log   *slog.Logger
}

// NewApp builds the Fiber app with all routes registered.
func NewApp(deps Deps) *fiber.App {
	fa := fiber.New(fiber.Config{
		ErrorHandler:          newErrorHandler(deps.Log),
		DisableStartupMessage: true,
		BodyLimit:             maxUploadBytes + 1<<20,
	})

	authH := NewAuthHandler(deps.Auth, deps.OTP)
	matchH := NewMatchHandler(deps.Matches)
	walletH := NewWalletHandler(deps.Wallet, deps.Catalog)
	contentH := NewContentHandler(deps.Categories, deps.Questions, deps.Catalog)
	mediaH := NewMediaHandler(deps.Media)

	fa.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := fa.Group("/auth")
	auth.Post("/register/request-otp", authH.RequestRegisterOTP)
	auth.Post("/register/verify-otp", authH.VerifyRegisterOTP)
	auth.Post("/login", authH.Login)
	auth.Post("/login/request-otp", authH.RequestLoginOTP)
	auth.Post("/login/verify-otp", authH.VerifyLoginOTP)
	auth.Post("/forgot-password/request-otp", authH.RequestPasswordResetOTP)
	auth.Post("/forgot-password/reset", authH.ResetPassword)

	authed := fa.Group("", requireAuth(deps.Auth, deps.Tokens))

	authed.Get("/users/me", authH.Me)
	authed.Patch("/users/me", authH.UpdateMe)

	authed.Get("/categories", contentH.ListCategories)
	authed.Get("/categories/:id", contentH.GetCategory)
	authed.Get("/products", contentH.ListProducts)

	matches := authed.Group("/matches")
	matches.Post("", matchH.Create)
	matches.Get("", matchH.List)
	matches.Get("/:id", matchH.Get)
	matches.Delete("/:id", matchH.Delete)
	matches.Post("/:id/next-question", matchH.NextQuestion)
	matches.Get("/:id/rounds/:round_no/hint", matchH.RoundHint)
	matches.Get("/:id/rounds/:round_no/answer", matchH.RoundAnswer)
	matches.Post("/:id/judge", matchH.Judge)
	matches.Post("/:id/finish", matchH.Finish)
	matches.Patch("/:id/teams", matchH.PatchTeams)

	authed.Get("/wallet", walletH.Wallet)
	authed.Get("/wallet/purchases", walletH.Purchases)
	authed.Post("/wallet/consume-round", walletH.ConsumeRound)
	authed.Post("/purchases/round-pack", walletH.PurchaseRoundPack)

	admin := authed.Group("/admin", requireAdmin())
	admin.Post("/categories", contentH.CreateCategory)
	admin.Patch("/categories/:id", contentH.UpdateCategory)
	admin.Delete("/categories/:id", contentH.DeleteCategory)
	admin.Get("/questions", contentH.ListQuestions)
	admin.Get("/questions/:id", contentH.GetQuestion)
	admin.Post("/questions", contentH.CreateQuestion)
	admin.Patch("/questions/:id", contentH.UpdateQuestion)
	admin.Delete("/questions/:id", contentH.DeleteQuestion)
	admin.Post("/products", contentH.CreateProduct)
	admin.Patch("/products/:id", contentH.UpdateProduct)
	admin.Delete("/products/:id", contentH.DeleteProduct)
	admin.Post("/media/upload", mediaH.Upload)

	return fa
}
