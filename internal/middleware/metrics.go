package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/validate"
)

// Metrics records request counts and latency by route pattern.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		m.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(responseStatus(c, err))).Inc()
		m.HTTPLatency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// responseStatus is the status the error handler will write for err. Inside
// the middleware chain the response has not been rendered yet.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var ferr *fiber.Error
	switch {
	case errors.As(err, &ferr):
		return ferr.Code
	case errors.Is(err, validate.ErrValidation):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
