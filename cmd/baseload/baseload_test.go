package main

import (
	"testing"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildApp(t *testing.T) {
	app := buildApp()
	assert.Equal(t, "baseload", app.Name)

	names := []string{}
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"analyze", "decompose", "load", "service"}, names)
}

func TestLoggingSetup(t *testing.T) {
	sender := grip.GetSender()
	original := sender.Level()
	defer func() { assert.NoError(t, sender.SetLevel(original)) }()

	require.NoError(t, loggingSetup("baseload-test", "debug"))
	assert.Equal(t, level.Debug, grip.GetSender().Level().Threshold)
	assert.Equal(t, "baseload-test", grip.GetSender().Name())
}
