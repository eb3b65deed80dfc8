package commands

import (
	"git.home.luguber.info/inful/labrunner/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	DataDir string `short:"d" name:"data-dir" help:"Override the daemon data directory"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	if d.DataDir != "" {
		// The history db defaults under the data dir; keep them together
		// unless the config pinned an explicit path elsewhere.
		if cfg.Daemon.HistoryDB == cfg.Daemon.DataDir+"/history.db" {
			cfg.Daemon.HistoryDB = d.DataDir + "/history.db"
		}
		cfg.Daemon.DataDir = d.DataDir
	}

	ctx, cancel := signalContext()
	defer cancel()

	dmn, err := daemon.New(cfg, root.Config)
	if err != nil {
		return err
	}
	return dmn.Run(ctx)
}
