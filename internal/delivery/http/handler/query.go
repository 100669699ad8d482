package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/quakemap/internal/pkg/errors"
)

// invalidRequest turns a validator error into a 400 response error.
func invalidRequest(err error) error {
	return errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
		"validation": err.Error(),
	})
}

// queryFloat reads a float query parameter, returning def when it is absent.
func queryFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"param": key,
			"value": raw,
		})
	}
	return v, nil
}

// queryFloatPtr reads an optional float query parameter.
func queryFloatPtr(c *fiber.Ctx, key string) (*float64, error) {
	if c.Query(key) == "" {
		return nil, nil
	}
	v, err := queryFloat(c, key, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
