package http

import (
	"github.com/gofiber/fiber/v2"

	"trivia-match-service/internal/app"
)

// AuthHandler serves registration, login, password reset and profile routes.
type AuthHandler struct {
	auth *app.AuthService
	otp  *app.OTPService
}

func NewAuthHandler(auth *app.AuthService, otp *app.OTPService) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp}
}

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

type resetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"otp"`
	NewPassword string `json:"new_password"`
}

type updateMeRequest struct {
	Name                *string  `json:"name"`
	FavoriteCategoryIDs []string `json:"favorite_category_ids"`
}

func (h *AuthHandler) RequestRegisterOTP(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}
	issued, err := h.otp.RequestRegister(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(issued)
}

func (h *AuthHandler) VerifyRegisterOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	token, err := h.otp.VerifyRegister(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(token)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(token)
}

func (h *AuthHandler) RequestLoginOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	issued, err := h.otp.RequestLogin(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(issued)
}

func (h *AuthHandler) VerifyLoginOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	token, err := h.otp.VerifyLogin(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(token)
}

func (h *AuthHandler) RequestPasswordResetOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	issued, err := h.otp.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(issued)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "new_password is required")
	}
	if err := h.otp.VerifyPasswordReset(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "password updated"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	view, err := h.auth.Me(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	view, err := h.auth.UpdateMe(c.UserContext(), callerID(c), req.Name, req.FavoriteCategoryIDs)
	if err != nil {
		return err
	}
	return c.JSON(view)
}
