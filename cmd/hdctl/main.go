// Command hdctl is the operator CLI: launch/add-slaves/upload/download/
// submit/clean/status/teardown/genpasswd/ui-links, all implemented as
// POSTs to the coordinator's REST control plane (spec.md §1(d): CLI
// tools are an out-of-scope collaborator that "simply POST to the
// coordinator"). Mirrors original_source/tools/*.py one script per
// subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "hdctl",
		Usage: "operate a Hadoop cluster coordinator",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: os.ExpandEnv("$HOME/.hdctl.yaml"), Usage: "local YAML config (project, bucket, secret)"},
		},
		Commands: []*cli.Command{
			launchCommand,
			addSlavesCommand,
			uploadCommand,
			downloadCommand,
			submitCommand,
			cleanCommand,
			statusCommand,
			teardownCommand,
			genpasswdCommand,
			uiLinksCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
