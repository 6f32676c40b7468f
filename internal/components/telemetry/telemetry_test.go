package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	memory := &MemoryAPI{}
	scoped := NewScopedAPI("portal", memory)

	scoped.ReportBroken("client.fetch", "boom")
	scoped.ReportWarning("client.fetch", KV{Key: "status", Value: 503})
	scoped.ReportCount("client.pool", 3)

	broken := memory.Reports("broken", "portal: client.fetch")
	require.Len(t, broken, 1)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	warnings := memory.Reports("warning", "client.fetch")
	require.Len(t, warnings, 1)
	require.Equal(t, "status=503", warnings[0].Params[0].(KV).String())

	require.Len(t, memory.Reports("count", ""), 1)
	require.Empty(t, memory.Reports("debug", ""))
}
