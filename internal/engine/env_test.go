package engine

import (
	"context"
	"errors"
	"testing"

	"arbpanel/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envDoc = "# exchange keys\nLIGHTER_API_KEY=abc\nEXTENDED_API_KEY=\"x y\"\n"

func TestEnvEditorRoundTrip(t *testing.T) {
	api := &APIMock{}
	api.On("Env").Return(envDoc, nil).Once()
	api.On("SaveEnv", envDoc+"NEW=1\n").Return(nil).Once()

	e := NewEnvEditor(api, logger.Discard())
	_, ok := e.Text()
	assert.False(t, ok)

	text, err := e.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, envDoc, text)

	require.NoError(t, e.Save(context.Background(), text+"NEW=1\n"))
	current, ok := e.Text()
	assert.True(t, ok)
	assert.Equal(t, envDoc+"NEW=1\n", current)
	api.AssertExpectations(t)
}

func TestEnvEditorSavesUnparsableText(t *testing.T) {
	api := &APIMock{}
	api.On("SaveEnv", "this is not = \"closed").Return(nil).Once()

	e := NewEnvEditor(api, logger.Discard())
	require.NoError(t, e.Save(context.Background(), "this is not = \"closed"))
	api.AssertExpectations(t)
}

func TestEnvEditorSaveFailureKeepsText(t *testing.T) {
	api := &APIMock{}
	api.On("Env").Return("A=1\n", nil).Once()
	api.On("SaveEnv", "A=2\n").Return(errors.New("boom")).Once()

	e := NewEnvEditor(api, logger.Discard())
	_, err := e.Load(context.Background())
	require.NoError(t, err)

	assert.Error(t, e.Save(context.Background(), "A=2\n"))
	text, _ := e.Text()
	assert.Equal(t, "A=1\n", text)
}

func TestParseEnv(t *testing.T) {
	vars, err := ParseEnv(envDoc)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"LIGHTER_API_KEY":  "abc",
		"EXTENDED_API_KEY": "x y",
	}, vars)
}
