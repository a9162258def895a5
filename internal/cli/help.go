package cli

import (
	"embed"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/doppel/pkg/cobrax/topics"
	"github.com/arthur-debert/doppel/pkg/ui"
)

// helpDir holds the markdown help topics shipped with the binary.
const helpDir = "help"

//go:embed help
var helpFiles embed.FS

// installTopics adds "doppel help <topic>" for the embedded topics. Markdown
// is styled only when stdout is a color terminal.
func installTopics(root *cobra.Command) error {
	var renderer topics.Renderer = topics.PlainRenderer{}
	if ui.DetectFormat(os.Stdout) == ui.FormatTerminal {
		renderer = topics.NewGlamourRenderer()
	}

	_, err := topics.Install(root, afero.FromIOFS{FS: helpFiles}, helpDir, topics.Options{
		Extensions: []string{".md"},
		Renderer:   renderer,
	})
	return err
}
