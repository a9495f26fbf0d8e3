package temporal

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLogAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewLogAdapter(zerolog.New(&buf))

	adapter.Info("purged", "total", 3, "dangling")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "purged", entry["message"])
	require.Equal(t, "temporal-sdk", entry["component"])
	require.Equal(t, float64(3), entry["total"])
	require.Equal(t, "MISSING_VALUE", entry["dangling"])
}
