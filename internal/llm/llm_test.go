package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"smartspend/internal/ports"
)

func TestDisabledAlwaysFails(t *testing.T) {
	out, err := Disabled{}.Complete(context.Background(), ports.CompletionRequest{Prompt: "hi"})
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ports.ErrCompletionFailed)
}
