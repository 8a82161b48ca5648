package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/httpx"
)

// Handler exposes register, login and refresh.
type Handler struct {
	accounts *account.Service
	svc      *Service
}

func NewHandler(accounts *account.Service, svc *Service) *Handler {
	return &Handler{accounts: accounts, svc: svc}
}

type sessionResponse struct {
	Message string          `json:"message"`
	User    account.Account `json:"user"`
	TokenPair
}

// Register creates an account and signs it in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var in account.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.ErrBadBody
	}
	acc, err := h.accounts.Register(c.UserContext(), in)
	if err != nil {
		return account.HTTPError(err)
	}
	pair, err := h.svc.Issue(acc)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(sessionResponse{Message: "User registered successfully", User: acc, TokenPair: pair})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login validates credentials and returns a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.ErrBadBody
	}
	acc, pair, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return account.HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(sessionResponse{Message: "Login successful", User: acc, TokenPair: pair})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh issues a new access token using a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.ErrBadBody
	}
	token, exp, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": token, "expiresIn": exp})
}

// HTTPError maps token errors to 401.
func HTTPError(err error) error {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return fiber.NewError(http.StatusUnauthorized, "Token expired")
	case errors.Is(err, ErrInvalidToken):
		return fiber.NewError(http.StatusUnauthorized, "Invalid token")
	}
	return err
}
