package gekko

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := newLoggerTo(&out, &errOut, "morph", false)

	logger.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	logger.SetDebug(true)
	logger.Debugf("shown %d", 2)
	logger.Infof("info")
	logger.Warnf("careful")
	logger.Errorf("broken: %v", "x")

	assert.Contains(t, out.String(), "[morph] DEBUG: shown 2")
	assert.Contains(t, out.String(), "[morph] INFO: info")
	assert.Contains(t, errOut.String(), "[morph] WARN: careful")
	assert.Contains(t, errOut.String(), "[morph] ERROR: broken: x")
}

func TestLoggingModule(t *testing.T) {
	app := NewApp()
	assert.IsType(t, nopLogger{}, app.Logger())

	var out bytes.Buffer
	app.UseModules(LoggingModule{Output: &out, Debug: true})
	require.IsType(t, &DefaultLogger{}, app.Logger())
	assert.True(t, app.Logger().DebugEnabled())

	app.Commands().Logger().Infof("hello")
	assert.Contains(t, out.String(), "INFO: hello")
}
