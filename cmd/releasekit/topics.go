package releasekit

import (
	"embed"
	"io/fs"

	"github.com/arthur-debert/releasekit/pkg/cobrax/topics"
	"github.com/spf13/cobra"
)

//go:embed topics/*.md
var topicFiles embed.FS

// initTopics installs the topic-aware help command.
func initTopics(rootCmd *cobra.Command) error {
	fsys, err := fs.Sub(topicFiles, "topics")
	if err != nil {
		return err
	}
	return topics.InitializeWithOptions(rootCmd, fsys, topics.Options{
		Extensions: []string{".md"},
		Renderer:   topics.NewGlamourRenderer(),
	})
}
