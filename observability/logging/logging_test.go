package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWithOptionsWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "bridged.log")
	logger, closer := SetupWithOptions("bridged", "test", Options{File: path, MaxSizeMB: 1, Output: &buf})
	defer closer.Close()

	logger.Info("call committed", "op", "approve")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "call committed", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "bridged", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "approve", line["op"])
	require.Contains(t, line, "timestamp")

	require.NoError(t, closer.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "call committed")
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("hmac_secret", "s3cret").Value.String())
	require.Equal(t, "approve", MaskField("op", "approve").Value.String())
	require.Equal(t, "", MaskField("dsn", "").Value.String())
	require.True(t, IsAllowlisted(" Caller "))
	require.Contains(t, RedactionAllowlist(), "message_id")
	require.Equal(t, RedactedValue, MaskValue("x"))
}
