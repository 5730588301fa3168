package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/gce-tools/hadoop-coordinator/cluster"
)

var uploadCommand = &cli.Command{
	Name:      "upload",
	Usage:     "copy a local object-store path into HDFS",
	ArgsUsage: "<gs-path>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "hdfs-dir", Value: "/user/hadoop", Usage: "destination directory in HDFS"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: hdctl upload <gs-path> [--hdfs-dir DIR]")
		}
		return runTransfer(c, c.Args().First(), c.String("hdfs-dir"))
	},
}

var downloadCommand = &cli.Command{
	Name:      "download",
	Usage:     "copy an HDFS path to an object-store destination",
	ArgsUsage: "<hdfs-path> <gs-path>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("usage: hdctl download <hdfs-path> <gs-path>")
		}
		return runTransfer(c, c.Args().Get(0), c.Args().Get(1))
	},
}

// runTransfer POSTs /transfer and polls /status/op/<id> with an mpb
// spinner until the operation reaches the terminal Done state,
// mirroring original_source/tools/poll_operation.py.
func runTransfer(c *cli.Context, src, dst string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	reply, err := post(cfg, "/transfer", map[string]string{"src": src, "dst": dst})
	if err != nil {
		return err
	}
	opID, _ := reply["operation"].(string)
	if opID == "" {
		return fmt.Errorf("coordinator did not return an operation id: %v", reply)
	}

	progress := mpb.New(mpb.WithWidth(40))
	bar := progress.AddBar(1, mpb.PrependDecorators(decor.Name(opID)))
	for {
		reply, err := post(cfg, "/status/op/"+opID, nil)
		if err != nil {
			return err
		}
		if state, _ := reply["state"].(string); state == cluster.Done {
			bar.SetTotal(1, true)
			break
		}
		time.Sleep(2 * time.Second)
	}
	progress.Wait()
	fmt.Printf("%s: %s\n", opID, cluster.Done)
	return nil
}
