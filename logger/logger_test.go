package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForStore().Info().Msg("upserted")
	assert.Contains(t, buf.String(), `"component":"store"`)
	assert.Contains(t, buf.String(), `"message":"upserted"`)

	buf.Reset()
	ForSession("https://www.arabam.com/ilan/x/1").Warn().Msg("timeout")
	assert.Contains(t, buf.String(), `"component":"session"`)
	assert.Contains(t, buf.String(), `"url":"https://www.arabam.com/ilan/x/1"`)

	buf.Reset()
	LogError("worker", errors.New("boom"), "cycle %d failed", 3)
	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), "cycle 3 failed")
}
