// Package main triggers and schedules pipeline workflows.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file")
	schedule := flag.Bool("schedule", false, "register the workflow on its cron schedule instead of running it once")
	wait := flag.Bool("wait", false, "block until the workflow finishes and print its result")
	runID := flag.String("run-id", "", "explicit run identifier")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <etl|train>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	target := flag.Arg(0)

	cfg, err := config.Load(*configPath, config.Overrides{})
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	var workflowName, cron string
	var input any
	switch target {
	case "etl":
		workflowName = pipeline.ETLRunWorkflowName
		cron = cfg.Temporal.ETLCron
		input = pipeline.ETLRunInput{RunID: *runID}
	case "train":
		workflowName = pipeline.TrainingRunWorkflowName
		cron = cfg.Temporal.TrainingCron
		input = pipeline.TrainingRunInput{RunID: *runID}
	default:
		log.Fatalf("Unknown target %q, want etl or train", target)
	}

	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("%s-%d", workflowName, time.Now().Unix()),
		TaskQueue: cfg.Temporal.TaskQueue,
	}
	if *schedule {
		opts.ID = workflowName + "-cron"
		opts.CronSchedule = cron
	}

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, opts, workflowName, input)
	if err != nil {
		log.Fatalf("Failed to start workflow: %v", err)
	}
	log.Printf("Started %s: workflowId=%s runId=%s", workflowName, run.GetID(), run.GetRunID())

	if *schedule {
		log.Printf("Scheduled with cron %q", cron)
		return
	}
	if !*wait {
		return
	}

	var result map[string]any
	if err := run.Get(ctx, &result); err != nil {
		log.Fatalf("Workflow failed: %v", err)
	}
	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
}
