package requestctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithInfo(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := WithInfo(context.Background(), Info{
		ID:        "req-1",
		StartTime: start,
		Endpoint:  "https://localhost:13000",
	})

	info, ok := GetInfo(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", info.ID)
	assert.Equal(t, start, info.StartTime)
	assert.Equal(t, "https://localhost:13000", info.Endpoint)
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestGetInfo_Missing(t *testing.T) {
	info, ok := GetInfo(context.Background())
	assert.False(t, ok)
	assert.Equal(t, Info{}, info)
	assert.Empty(t, RequestID(context.Background()))
}
