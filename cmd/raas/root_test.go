package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-raas/internal/config"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, path := range [][]string{{"serve"}, {"migrate"}, {"pipeline", "run"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	run, _, err := root.Find([]string{"pipeline", "run"})
	require.NoError(t, err)
	for _, name := range []string{outcomeFlag, modeFlag, resumeFlag} {
		assert.NotNil(t, run.Flags().Lookup(name), name)
	}

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup(addrFlag))
}

func TestPipelineRunFlagsArePerCommand(t *testing.T) {
	first := newRootCommand()
	first.SetArgs([]string{"pipeline", "run", "--outcome", "first-id"})
	first.SetOut(&bytes.Buffer{})
	assert.ErrorContains(t, first.Execute(), `invalid outcome id "first-id"`)

	second := newRootCommand()
	second.SetArgs([]string{"pipeline", "run", "--outcome", "second-id"})
	second.SetOut(&bytes.Buffer{})
	assert.ErrorContains(t, second.Execute(), `invalid outcome id "second-id"`)
}

func TestListenAddr(t *testing.T) {
	cfg := &config.Config{HTTPAddr: "0.0.0.0:8431"}
	assert.Equal(t, "0.0.0.0:8431", listenAddr(cfg, ""))
	assert.Equal(t, "127.0.0.1:9999", listenAddr(cfg, "127.0.0.1:9999"))
}

func TestServeAddrFlagParses(t *testing.T) {
	root := newRootCommand()
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, serve.Flags().Parse([]string{"--addr", "127.0.0.1:9999"}))
	got, err := serve.Flags().GetString(addrFlag)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", got)
}

func TestPipelineRunValidatesOutcome(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"pipeline", "run"}, "--outcome is required"},
		{[]string{"pipeline", "run", "--outcome", "not-a-uuid"}, `invalid outcome id "not-a-uuid"`},
	}
	for _, tt := range tests {
		root := newRootCommand()
		root.SetArgs(tt.args)
		root.SetOut(&bytes.Buffer{})
		err := root.Execute()
		assert.ErrorContains(t, err, tt.want)
	}
}
