package authapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/internal/metrics"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		kind      auth.Kind
		challenge bool
	}{
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, auth.KindInvalidCredentials, true},
		{"token", auth.ErrInvalidToken, http.StatusUnauthorized, auth.KindUnauthenticated, true},
		{"wrapped", errors.Wrap(auth.ErrInvalidToken, "resolve"), http.StatusUnauthorized, auth.KindUnauthenticated, true},
		{"inactive", auth.ErrInactiveUser, http.StatusForbidden, auth.KindInactiveUser, false},
		{"role", auth.InsufficientRole("nope"), http.StatusForbidden, auth.KindInsufficientRole, false},
		{"not found", auth.NotFound("no user %d", 3), http.StatusNotFound, auth.KindNotFound, false},
		{"duplicate", auth.DuplicateUsername("alice"), http.StatusConflict, auth.KindDuplicateUsername, false},
		{"validation", auth.Validation("bad"), http.StatusUnprocessableEntity, auth.KindValidation, false},
		{"fiber 404", fiber.ErrNotFound, http.StatusNotFound, auth.KindNotFound, false},
		{"fiber 400", fiber.ErrBadRequest, http.StatusUnprocessableEntity, auth.KindValidation, false},
		{"fiber 405", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed, auth.KindInvalidRequest, false},
		{"fiber 413", fiber.ErrRequestEntityTooLarge, http.StatusRequestEntityTooLarge, auth.KindInvalidRequest, false},
		{"fiber 503", fiber.ErrServiceUnavailable, http.StatusInternalServerError, auth.KindServerError, false},
		{"internal", errors.New("database on fire"), http.StatusInternalServerError, auth.KindServerError, false},
	}

	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(m)})
	var current error
	app.Get(
		"/", func(*fiber.Ctx) error {
			return current
		},
	)

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			current = test.err
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, test.status, resp.StatusCode)
			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, test.kind, body.Error)
			assert.NotEmpty(t, body.ErrorDescription)
			if test.challenge {
				assert.Equal(t, "Bearer", resp.Header.Get(fiber.HeaderWWWAuthenticate))
			} else {
				assert.Empty(t, resp.Header.Get(fiber.HeaderWWWAuthenticate))
			}
		})
	}

	t.Run("internal details stay hidden", func(t *testing.T) {
		current = errors.New("dsn=postgres://secret")
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotContains(t, body.ErrorDescription, "secret")
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthorizationDenials.WithLabelValues(string(auth.KindUnauthenticated))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorizationDenials.WithLabelValues(string(auth.KindInactiveUser))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthorizationDenials.WithLabelValues(string(auth.KindInsufficientRole))))
}
