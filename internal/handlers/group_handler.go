package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/halcyonchat/halcyon-backend/internal/apperr"
	"github.com/halcyonchat/halcyon-backend/internal/cache"
	"github.com/halcyonchat/halcyon-backend/internal/httpx"
	"github.com/halcyonchat/halcyon-backend/internal/models"
	"github.com/halcyonchat/halcyon-backend/internal/service"
)

// GroupHandler exposes the membership mutations that drive live channel
// eviction and join. Group CRUD beyond membership lives elsewhere.
type GroupHandler struct {
	groups        *service.GroupService
	presenceCache *cache.PresenceCache
}

func NewGroupHandler(groups *service.GroupService, presenceCache *cache.PresenceCache) *GroupHandler {
	return &GroupHandler{groups: groups, presenceCache: presenceCache}
}

func respondServiceError(c *fiber.Ctx, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return httpx.NotFound(c, "not_found", err.Error())
	case apperr.KindUnauthenticated:
		return httpx.Unauthorized(c, "unauthenticated", err.Error())
	default:
		return httpx.Internal(c, "internal_error")
	}
}

func (h *GroupHandler) AddMember(c *fiber.Ctx) error {
	callerID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthenticated", "Missing caller identity")
	}
	groupID, err := c.ParamsInt("id")
	if err != nil || groupID <= 0 {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	var body struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.UserID == 0 {
		return httpx.BadRequest(c, "invalid_body", "user_id is required")
	}

	if err := h.groups.AddMember(uint(groupID), body.UserID, callerID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	callerID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthenticated", "Missing caller identity")
	}
	groupID, err := c.ParamsInt("id")
	if err != nil || groupID <= 0 {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}
	userID, err := c.ParamsInt("user_id")
	if err != nil || userID <= 0 {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	if err := h.groups.RemoveMember(uint(groupID), uint(userID), callerID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *GroupHandler) ChangeRole(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil || groupID <= 0 {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}
	userID, err := c.ParamsInt("user_id")
	if err != nil || userID <= 0 {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	var body struct {
		Role models.GroupRole `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return httpx.BadRequest(c, "invalid_body", "role is required")
	}
	if body.Role != models.RoleAdmin && body.Role != models.RoleMember {
		return httpx.BadRequest(c, "invalid_role", "Role must be admin or member")
	}

	if err := h.groups.ChangeRole(uint(groupID), uint(userID), body.Role); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil || groupID <= 0 {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	if err := h.groups.DeleteGroup(uint(groupID)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// OnlineUsers reads the redis presence mirror so request/response callers
// never touch the registry.
func (h *GroupHandler) OnlineUsers(c *fiber.Ctx) error {
	users, err := h.presenceCache.GetOnlineUsers()
	if err != nil {
		return httpx.Internal(c, "presence_unavailable")
	}
	return c.JSON(fiber.Map{"online": users, "count": len(users)})
}
