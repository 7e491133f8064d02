package handler

import (
	"github.com/codax69/sever-main-sub001/internal/auth/dto"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/pkg/response"
	"github.com/gofiber/fiber/v2"
)

func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	var input dto.ListUsersInput
	if err := c.QueryParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	page, err := h.userService.ListUsers(c.UserContext(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	out := dto.UserListOutput{
		Users: make([]dto.UserOutput, 0, len(page.Users)),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
	for _, u := range page.Users {
		out.Users = append(out.Users, dto.NewUserOutput(u))
	}
	return response.OK(c, out, "Users fetched successfully")
}

func (h *AuthHandler) DeleteUser(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	if actor == nil {
		return h.writeError(c, autherror.ErrUnauthenticated)
	}

	if err := h.userService.DeleteUser(c.UserContext(), actor.ID, c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, nil, "User deleted successfully")
}

func (h *AuthHandler) SetApproval(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	if actor == nil {
		return h.writeError(c, autherror.ErrUnauthenticated)
	}

	var input dto.SetApprovalInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}
	if err := dto.Validate(input); err != nil {
		return h.writeError(c, err)
	}

	if err := h.userService.SetApproval(c.UserContext(), actor.ID, c.Params("id"), *input.Approved); err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, nil, "User approval updated")
}

func (h *AuthHandler) SetActive(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	if actor == nil {
		return h.writeError(c, autherror.ErrUnauthenticated)
	}

	var input dto.SetActiveInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}
	if err := dto.Validate(input); err != nil {
		return h.writeError(c, err)
	}

	if err := h.userService.SetActive(c.UserContext(), actor.ID, c.Params("id"), *input.Active); err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, nil, "User status updated")
}
