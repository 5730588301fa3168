package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
)

var launchCommand = &cli.Command{
	Name:  "launch",
	Usage: "launch a new cluster",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "slaves", Value: 3, Usage: "initial slave count"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		err = requireOK(post(cfg, "/hadoop/launch", map[string]string{
			"num_slaves": strconv.Itoa(c.Int("slaves")),
		}))
		if err != nil {
			return err
		}
		fmt.Println("launch accepted")
		return nil
	},
}

var addSlavesCommand = &cli.Command{
	Name:      "add-slaves",
	Usage:     "grow the cluster by N slaves",
	ArgsUsage: "N",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: hdctl add-slaves N")
		}
		n, err := strconv.Atoi(c.Args().First())
		if err != nil {
			return fmt.Errorf("N must be an integer: %w", err)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		err = requireOK(post(cfg, "/hadoop/add_slaves", map[string]string{
			"num_slaves": strconv.Itoa(n),
		}))
		if err != nil {
			return err
		}
		fmt.Println("add_slaves accepted")
		return nil
	},
}

var teardownCommand = &cli.Command{
	Name:  "teardown",
	Usage: "delete every instance and reset the cluster to DOWN",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		fmt.Println("tearing down cluster, this cannot be undone")
		return requireOK(post(cfg, "/hadoop/teardown", nil))
	},
}
