package authapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/internal/metrics"
)

// errorResponse is the body of every error response
type errorResponse struct {
	Error            auth.Kind `json:"error"`
	ErrorDescription string    `json:"error_description"`
}

// ErrorHandler returns a fiber.ErrorHandler mapping errors to json error
// responses. Errors outside the auth taxonomy are logged and answered with
// a generic server_error.
func ErrorHandler(m *metrics.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		e := classify(c, err)
		if e.Kind == auth.KindServerError {
			log.WithError(err).WithFields(
				log.Fields{
					"method": c.Method(),
					"path":   c.Path(),
				},
			).Error("request failed")
		}
		switch e.Kind {
		case auth.KindUnauthenticated, auth.KindInactiveUser, auth.KindInsufficientRole:
			log.WithFields(
				log.Fields{
					"kind":   e.Kind,
					"method": c.Method(),
					"path":   c.Path(),
					"ip":     c.IP(),
				},
			).Info("request denied")
			if m != nil {
				m.ObserveDenial(string(e.Kind))
			}
		}
		if e.Challenge() {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}
		return c.Status(e.Status()).JSON(
			errorResponse{
				Error:            e.Kind,
				ErrorDescription: e.Description,
			},
		)
	}
}

func classify(c *fiber.Ctx, err error) *auth.Error {
	if e := auth.AsError(err); e != nil {
		return e
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return auth.NotFound("Cannot %s %s", c.Method(), c.Path())
		case fiber.StatusUnprocessableEntity, fiber.StatusBadRequest:
			return auth.Validation("%s", fe.Message)
		}
		if fe.Code >= fiber.StatusBadRequest && fe.Code < fiber.StatusInternalServerError {
			return auth.InvalidRequest(fe.Code, fe.Message)
		}
	}
	return &auth.Error{
		Kind:        auth.KindServerError,
		Description: "Internal server error",
	}
}
