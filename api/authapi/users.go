package authapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/go-oidfed/gatehouse/accounts"
	"github.com/go-oidfed/gatehouse/auth"
)

type messageResponse struct {
	Message string `json:"message"`
}

// registerUsers mounts the user account routes
func registerUsers(r fiber.Router, deps Deps) {
	svc := deps.Accounts
	g := r.Group("/users")

	g.Post(
		"/signup", func(c *fiber.Ctx) error {
			var reg accounts.Registration
			if err := c.BodyParser(&reg); err != nil {
				return auth.Validation("invalid body: %s", err.Error())
			}
			u, err := svc.Register(c.UserContext(), reg)
			if err != nil {
				return err
			}
			return c.JSON(u)
		},
	)

	authed := g.Group("", requireActiveUser(deps.Resolver))

	authed.Get(
		"/me", func(c *fiber.Ctx) error {
			u, err := svc.Me(currentUser(c))
			if err != nil {
				return err
			}
			return c.JSON(u)
		},
	)

	authed.Get(
		"/", func(c *fiber.Ctx) error {
			offset := c.QueryInt("offset", 0)
			limit := c.QueryInt("limit", accounts.MaxListLimit)
			list, err := svc.List(c.UserContext(), currentUser(c), offset, limit)
			if err != nil {
				return err
			}
			return c.JSON(list)
		},
	)

	authed.Post(
		"/", func(c *fiber.Ctx) error {
			var nu accounts.NewUser
			if err := c.BodyParser(&nu); err != nil {
				return auth.Validation("invalid body: %s", err.Error())
			}
			u, err := svc.Create(c.UserContext(), currentUser(c), nu)
			if err != nil {
				return err
			}
			return c.JSON(u)
		},
	)

	authed.Get(
		"/:username", func(c *fiber.Ctx) error {
			u, err := svc.GetByUsername(c.UserContext(), currentUser(c), c.Params("username"))
			if err != nil {
				return err
			}
			return c.JSON(u)
		},
	)

	authed.Patch(
		"/:id", func(c *fiber.Ctx) error {
			id, err := userID(c)
			if err != nil {
				return err
			}
			update, err := accounts.ParseUserUpdate(c.Body())
			if err != nil {
				return err
			}
			u, err := svc.Update(c.UserContext(), currentUser(c), id, update)
			if err != nil {
				return err
			}
			return c.JSON(u)
		},
	)

	authed.Delete(
		"/:id", func(c *fiber.Ctx) error {
			id, err := userID(c)
			if err != nil {
				return err
			}
			if err = svc.Delete(c.UserContext(), currentUser(c), id); err != nil {
				return err
			}
			return c.JSON(messageResponse{Message: "User deleted successfully"})
		},
	)
}

func userID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, auth.Validation("invalid user id '%s'", c.Params("id"))
	}
	return uint(id), nil
}
