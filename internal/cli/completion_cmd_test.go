package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionScripts(t *testing.T) {
	for _, shell := range completionCmd.ValidArgs {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			completionCmd.SetOut(&buf)
			t.Cleanup(func() { completionCmd.SetOut(nil) })

			require.NoError(t, completionCmd.RunE(completionCmd, []string{shell}))
			assert.Contains(t, buf.String(), "mikrodesk")
		})
	}
}

func TestCompletionHelpNamesBinary(t *testing.T) {
	help := completionHelp("mikrodesk")
	assert.Contains(t, help, "source <(mikrodesk completion bash)")
	assert.Contains(t, help, `"${fpath[1]}/_mikrodesk"`)
	assert.Equal(t, help, completionCmd.Long)
}
