package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/cmn"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "pretty-print the cluster's current status",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		reply, err := post(cfg, "/status/cluster", nil)
		if err != nil {
			return err
		}
		pprintStatus(reply)
		return nil
	},
}

var uiLinksCommand = &cli.Command{
	Name:  "ui-links",
	Usage: "print the JobTracker and NameNode web UI URLs once the cluster is READY",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		reply, err := post(cfg, "/status/cluster", nil)
		if err != nil {
			return err
		}
		state, _ := reply["state"].(string)
		if state != "READY" {
			return fmt.Errorf("cluster is %s, not READY", state)
		}
		fmt.Printf("NameNode UI:   http://%s:50070/\n", cmn.NameNode)
		fmt.Printf("JobTracker UI: http://%s:50030/\n", cmn.JobTracker)
		return nil
	},
}

// pprintStatus renders a /status/cluster reply the way
// original_source/tools/pprint_status.py colors state names: green for
// READY/HADOOP_READY, yellow for transitional states, red for
// BROKEN/DOOMED.
func pprintStatus(reply map[string]interface{}) {
	state, _ := reply["state"].(string)
	fmt.Printf("cluster: %s\n", colorForState(state)(state))

	instances, _ := reply["instances"].(map[string]interface{})
	for _, st := range cluster.DescOrder {
		names, ok := instances[st.String()]
		if !ok {
			continue
		}
		list, _ := names.([]interface{})
		if len(list) == 0 {
			continue
		}
		fmt.Printf("  %s:\n", colorForState(st.String())(st.String()))
		for _, n := range list {
			fmt.Printf("    %v\n", n)
		}
	}

	if errs, ok := reply["errors"].([]interface{}); ok && len(errs) > 0 {
		fmt.Println(color.RedString("errors:"))
		for _, e := range errs {
			fmt.Printf("  %v\n", e)
		}
	}
}

func colorForState(state string) func(string, ...interface{}) string {
	switch state {
	case "READY", "HADOOP_READY":
		return color.GreenString
	case "BROKEN", "DOOMED":
		return color.RedString
	default:
		return color.YellowString
	}
}
