package http_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"gestao/internal/gateway"
	apphttp "gestao/internal/http"
)

func TestStatusForFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no error", nil, fiber.StatusOK},
		{"transport", &gateway.TransportError{StatusCode: 500, Message: "boom"}, fiber.StatusBadGateway},
		{"wrapped protocol", fmt.Errorf("load: %w", &gateway.ProtocolError{Message: "bad"}), fiber.StatusBadGateway},
		{"cancelled", &gateway.CancelledError{Err: context.Canceled}, fiber.StatusServiceUnavailable},
		{"configuration", &gateway.ConfigurationError{Field: "api_base_url", Msg: "missing"}, fiber.StatusInternalServerError},
		{"unknown", errors.New("unexpected"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apphttp.StatusForFailure(tt.err))
		})
	}
}
