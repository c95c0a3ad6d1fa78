package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// UsersHandler exposes account and roster endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Register handles POST /api/Auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(*user))
}

// Login handles POST /api/Auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	_, issued, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(issued))
}

// Refresh handles POST /api/Auth/refresh.
func (h *UsersHandler) Refresh(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	issued, err := h.auth.Refresh(c.UserContext(), session)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(issued))
}

// Logout handles POST /api/Auth/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), session); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListByRole handles GET /api/User/role/:role.
func (h *UsersHandler) ListByRole(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	users, err := h.users.ListByRole(c.UserContext(), session, c.Params("role"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}
