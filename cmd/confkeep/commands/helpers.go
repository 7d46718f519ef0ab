package commands

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/confkeep/cmd/confkeep/commands/flags"
	"github.com/thoreinstein/confkeep/internal/logging"
	"github.com/thoreinstein/confkeep/internal/paths"
	"github.com/thoreinstein/confkeep/internal/store"
)

// pipelineFlags are the store options shared by check, get and set.
type pipelineFlags struct {
	fileType    string
	recoverPath string
	level       string
}

func (p *pipelineFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&p.fileType, "type", "t", "",
		"config format (toml, ini, yaml), overriding the file extension")
	c.Flags().StringVarP(&p.recoverPath, "recover-path", "r", "",
		"reference config: local path or http(s) URL")
	c.Flags().StringVarP(&p.level, "level", "l", "",
		"four-digit check level (default from settings, normally 1111)")
}

// checkLevel returns --level, falling back to the settings.
func (p *pipelineFlags) checkLevel() string {
	if p.level != "" {
		return p.level
	}
	return flags.Settings().CheckLevel
}

// open runs the store pipeline for path with the command's flags and the
// loaded settings.
func (p *pipelineFlags) open(cmd *cobra.Command, path string) (*store.Store, error) {
	recoverPath := p.recoverPath
	if recoverPath != "" {
		recoverPath = paths.ExpandHome(recoverPath)
	}

	return store.Open(cmd.Context(), store.Options{
		Path:        paths.ExpandHome(path),
		Type:        p.fileType,
		RecoverPath: recoverPath,
		CheckLevel:  p.checkLevel(),
		Logger:      logging.FromContext(cmd.Context()),
		HTTPClient:  flags.HTTPClient(),
		Backups:     flags.BackupManager(),
	})
}
