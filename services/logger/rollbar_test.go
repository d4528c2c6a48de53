package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "API : ", 0), core.NewTestConfig())
	logger.Enable(false)

	learner := account.Profile{ID: "u1", DisplayName: "Ada", Email: "ada@example.com"}
	logger.Error("submitting attempt", errors.New("boom"), map[string]interface{}{"assessment": "a1"}, learner)

	out := buf.String()
	assert.Contains(t, out, "API : submitting attempt\n")
	assert.Contains(t, out, "API : boom\n")
	assert.Contains(t, out, "map[assessment:a1]")
	assert.NotContains(t, out, "ada@example.com")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{}
	err := errors.New("boom")
	args := logger.prepare("msg", []interface{}{
		err,
		account.Profile{ID: "u1"},
		account.Profile{ID: "u2"},
	})
	assert.Equal(t, []interface{}{"msg", err}, args)
}
