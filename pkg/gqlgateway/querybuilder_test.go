package gqlgateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueQuotingRules(t *testing.T) {
	assert.Equal(t, "true", Value(true))
	assert.Equal(t, "false", Value(false))
	assert.Equal(t, "42", Value(42))
	assert.Equal(t, "3.5", Value(float64(3.5)))
	assert.Equal(t, `"hello"`, Value("hello"))
	assert.Equal(t, `"say \"hi\""`, Value(`say "hi"`))
	assert.Equal(t, "null", Value(nil))
}

func TestRenderFields(t *testing.T) {
	got := RenderFields([]Field{
		{Name: "records_processed", Value: 10},
		{Name: "message", Value: "done"},
		{Name: "rerun_flag", Value: false},
	})
	assert.Equal(t, "records_processed: 10,\nmessage: \"done\",\nrerun_flag: false,\n", got)
}
