package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), nil, Config{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInit_Stdout(t *testing.T) {
	shutdown, err := Init(context.Background(), nil, Config{ServiceName: "skillforge-test", Stdout: true})
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "test-span")
	span.End()
	require.NoError(t, shutdown(context.Background()))
}
