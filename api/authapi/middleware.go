package authapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/storage/model"
)

const localsUserKey = "gatehouse.user"

// requireActiveUser resolves the bearer token of the request to an active
// user and stores it in the request locals
func requireActiveUser(resolver *auth.SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := resolver.ResolveActive(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		c.Locals(localsUserKey, u)
		return c.Next()
	}
}

// currentUser returns the user stored by requireActiveUser
func currentUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(localsUserKey).(*model.User)
	return u
}
