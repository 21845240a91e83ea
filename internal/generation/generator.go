// Package generation holds the generative model adapters and the bounded
// call wrapper used by the router and the turn pipeline.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aura/internal/domain"
)

// Generator is the generative model capability.
type Generator = domain.Generator

// Call runs one generation under timeout. A deadline overrun is reported as
// domain.ErrGenerationTimeout, any other failure as domain.ErrGenerationFailed.
// A zero timeout leaves ctx unchanged.
func Call(ctx context.Context, g Generator, prompt string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	text, err := g.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %w", domain.ErrGenerationTimeout, timeout, err)
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrGenerationFailed, g.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s returned an empty response", domain.ErrGenerationFailed, g.Name())
	}
	return text, nil
}
