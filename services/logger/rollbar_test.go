package logsvc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/user"
)

func TestRollbarLogger(t *testing.T) {
	conf := &core.Config{Env: "TEST"}
	conf.Logging.Level = "debug"
	conf.Logging.Format = "json"

	buf := new(bytes.Buffer)
	logger := NewRollbarLogger(NewZerolog(buf, "api", conf), conf)
	logger.Enable(false)

	logger.Error("saving inquiry", errors.New("disk full"), map[string]interface{}{"id": 3}, user.User{ID: 1, Username: "admin"})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "saving inquiry", line["message"])
	assert.Equal(t, "api", line["component"])
	assert.Contains(t, line["error"], "disk full")
	assert.Equal(t, float64(3), line["id"])
	assert.Equal(t, float64(1), line["user_id"])
	assert.Equal(t, "admin", line["username"])
}

func TestNewZerolog_level(t *testing.T) {
	conf := &core.Config{}
	conf.Logging.Level = "warn"
	conf.Logging.Format = "json"

	buf := new(bytes.Buffer)
	logger := NewRollbarLogger(NewZerolog(buf, "api", conf), conf)
	logger.Enable(false)

	logger.Info("ignored")
	assert.Empty(t, buf.String())
	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLoggerMock(t *testing.T) {
	logger := NewLoggerMock()
	logger.Info("a")
	logger.Error("b", errors.New("c"))

	assert.Len(t, logger.Entries(""), 2)
	errs := logger.Entries("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "b", errs[0].Msg)

	logger.Reset()
	assert.Empty(t, logger.Entries(""))
}
