// Package inference talks to the remote vision-language model.
package inference

import (
	"context"
	"errors"
)

// ErrMissingCredential is returned when no API key is available for the
// inference service.
var ErrMissingCredential = errors.New("inference credential is not set")

// Request is one prompt plus one image.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// Client describes an image in free text.
// Implementations must make exactly one remote call per Describe.
type Client interface {
	Describe(ctx context.Context, req Request) (string, error)
}

// Factory builds a Client from a credential. It is called lazily, once per
// verification phase, so that no client is created when there is nothing to
// verify.
type Factory func(ctx context.Context, apiKey string) (Client, error)
