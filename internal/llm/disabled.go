package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured indica que no hay credencial para el servicio de texto.
var ErrNotConfigured = errors.New("llm not configured")

type disabledClient struct {
	reason string
}

// NewDisabledClient devuelve un cliente que siempre falla; se usa cuando falta la API key.
func NewDisabledClient(reason string) LLMClient {
	return &disabledClient{reason: reason}
}

func (c *disabledClient) Generate(_ context.Context, _ string, _ ...Option) (string, error) {
	if c.reason == "" {
		return "", ErrNotConfigured
	}
	return "", fmt.Errorf("%w: %s", ErrNotConfigured, c.reason)
}
