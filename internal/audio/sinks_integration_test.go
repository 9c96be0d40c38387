//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListSinksIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	devices, err := ListSinks(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, devices)

	_, ok := FindSink(devices, DefaultSinkID)
	require.True(t, ok)
}
