package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestScoringHelpNamesSemanticEmbedder(t *testing.T) {
	for _, cmd := range []*cobra.Command{serveCmd, scoreCmd} {
		t.Run(cmd.Name(), func(t *testing.T) {
			assert.Contains(t, cmd.Long, "shared wording")
			assert.Contains(t, cmd.Long, "nlp.embedder to gemini")
		})
	}
}
