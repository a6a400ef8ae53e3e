package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"gestao/internal/gateway"
)

// StatusForFailure maps a failed dashboard cycle to an HTTP status
func StatusForFailure(err error) int {
	var transportErr *gateway.TransportError
	var protocolErr *gateway.ProtocolError

	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &transportErr), errors.As(err, &protocolErr):
		return fiber.StatusBadGateway
	case gateway.IsCancelled(err):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(ctx *Context, err error) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}
