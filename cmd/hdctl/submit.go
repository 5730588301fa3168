package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gce-tools/hadoop-coordinator/cmn"
)

var submitCommand = &cli.Command{
	Name:      "submit",
	Usage:     "submit a MapReduce job jar",
	ArgsUsage: "<jar> [args...]",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("usage: hdctl submit <jar> [args...]")
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		jar := c.Args().First()
		jobArgs, err := cmn.JSON.MarshalToString(c.Args().Tail())
		if err != nil {
			return err
		}
		err = requireOK(post(cfg, "/job/submit", map[string]string{
			"jar":      jar,
			"job_args": jobArgs,
		}))
		if err != nil {
			return err
		}
		fmt.Println("job submitted")
		return nil
	},
}

var cleanCommand = &cli.Command{
	Name:      "clean",
	Usage:     "delete a path from HDFS",
	ArgsUsage: "<hdfs-path>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: hdctl clean <hdfs-path>")
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		err = requireOK(post(cfg, "/job/clean", map[string]string{"path": c.Args().First()}))
		if err != nil {
			return err
		}
		fmt.Println("clean requested")
		return nil
	},
}
