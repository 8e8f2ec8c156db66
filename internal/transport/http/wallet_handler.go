package http

import (
	"github.com/gofiber/fiber/v2"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// WalletHandler serves entitlement reads and the stubbed purchase flow.
type WalletHandler struct {
	wallet  *app.WalletService
	catalog *app.CatalogService
}

func NewWalletHandler(wallet *app.WalletService, catalog *app.CatalogService) *WalletHandler {
	return &WalletHandler{wallet: wallet, catalog: catalog}
}

type purchaseRequest struct {
	ProductID *string `json:"product_id"`
	Rounds    int     `json:"rounds"`
}

func (h *WalletHandler) Wallet(c *fiber.Ctx) error {
	view, err := h.wallet.Wallet(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *WalletHandler) Purchases(c *fiber.Ctx) error {
	purchases, err := h.wallet.Purchases(c.UserContext(), callerID(c),
		c.QueryInt("offset", 0), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	if purchases == nil {
		purchases = []*domain.Purchase{}
	}
	return c.JSON(purchases)
}

func (h *WalletHandler) PurchaseRoundPack(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	credited, err := h.catalog.PurchaseRoundPack(c.UserContext(), callerID(c), req.ProductID, req.Rounds)
	if err != nil {
		return err
	}
	wallet, err := h.wallet.Wallet(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"rounds_added": credited,
		"wallet":       wallet,
	})
}

func (h *WalletHandler) ConsumeRound(c *fiber.Ctx) error {
	if err := h.wallet.ConsumeRound(c.UserContext(), callerID(c)); err != nil {
		return err
	}
	wallet, err := h.wallet.Wallet(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(wallet)
}
