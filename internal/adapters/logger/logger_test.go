package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to buffers, with NO_COLOR set for deterministic output.
func newTestLogger(t *testing.T) (lg *logger.Logger, out, errOut *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	out = &bytes.Buffer{}
	errOut = &bytes.Buffer{}
	lg = logger.New()
	lg.SetOutput(out, errOut)
	return lg, out, errOut
}

func TestLogger_Info(t *testing.T) {
	lg, out, errOut := newTestLogger(t)
	lg.Info("resolving package https://example.com/Foo")

	assert.Empty(t, errOut.String())
	g := goldie.New(t)
	g.Assert(t, "info_basic", out.Bytes())
}

func TestLogger_Warn(t *testing.T) {
	lg, out, errOut := newTestLogger(t)
	lg.Warn("optional package skipped")

	assert.Empty(t, errOut.String())
	g := goldie.New(t)
	g.Assert(t, "warn_basic", out.Bytes())
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "standard error",
			err:        errors.New("boom"),
			goldenName: "error_plain",
		},
		{
			name:       "wrapped zerr chain",
			err:        zerr.Wrap(zerr.New("connection refused"), "failed to fetch package"),
			goldenName: "error_chain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, out, errOut := newTestLogger(t)
			lg.Error(tt.err)

			assert.Empty(t, out.String())
			g := goldie.New(t)
			g.Assert(t, tt.goldenName, errOut.Bytes())
		})
	}
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, out, errOut := newTestLogger(t)
	lg.Error(nil)

	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, out, errOut := newTestLogger(t)
	lg.SetJSON(true)

	lg.Info("cache hit")
	lg.Error(errors.New("boom"))

	var infoRecord map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &infoRecord))
	assert.Equal(t, "INFO", infoRecord["level"])
	assert.Equal(t, "cache hit", infoRecord["msg"])

	var errRecord map[string]any
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &errRecord))
	assert.Equal(t, "ERROR", errRecord["level"])
	assert.Equal(t, "boom", errRecord["error"])
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	log := slog.New(logger.NewPrettyHandler(&buf, nil)).
		With("folder", "Deps/My Lib").
		WithGroup("pkg")
	log.Info("→ https://example.com/Lib", "ref", "v1", "note", "")
	log.Debug("hidden")

	assert.Equal(t, "→ https://example.com/Lib folder=\"Deps/My Lib\" pkg.ref=v1 pkg.note=\"\"\n", buf.String())
}
