// Package main runs the pipeline Temporal worker.
package main

import (
	"context"
	"flag"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/objectstore"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/pipeline"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/registry"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, config.Overrides{})
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to build object store: %v", err)
	}

	// The registry is optional; training runs fail at registration time when
	// no database is configured.
	var reg *registry.Client
	if cfg.Registry.DatabaseURL != "" {
		reg, err = registry.New(context.Background(), cfg.Registry.DatabaseURL, store, cfg.S3.Bucket, cfg.S3.BasePrefix)
		if err != nil {
			log.Fatalf("Failed to connect model registry: %v", err)
		}
		defer reg.Close()
	}

	log.Printf("Starting pipeline worker: address=%s namespace=%s queue=%s",
		cfg.Temporal.Address, cfg.Temporal.Namespace, cfg.Temporal.TaskQueue)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflowWithOptions(pipeline.ETLRunWorkflow, workflow.RegisterOptions{Name: pipeline.ETLRunWorkflowName})
	w.RegisterWorkflowWithOptions(pipeline.TrainingRunWorkflow, workflow.RegisterOptions{Name: pipeline.TrainingRunWorkflowName})

	acts := pipeline.NewActivities(store, cfg, reg)
	w.RegisterActivity(acts.MarkRunStarted)
	w.RegisterActivity(acts.MarkRunCompleted)
	w.RegisterActivity(acts.MarkRunFailed)
	w.RegisterActivity(acts.ExtractSources)
	w.RegisterActivity(acts.TransformSources)
	w.RegisterActivity(acts.LoadUnified)
	w.RegisterActivity(acts.ReadUnified)
	w.RegisterActivity(acts.EngineerFeatures)
	w.RegisterActivity(acts.TrainModel)
	w.RegisterActivity(acts.RegisterModel)

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

// buildStore returns an S3-backed store when an endpoint is configured and a
// filesystem store rooted at the output directory otherwise.
func buildStore(cfg *config.Config) (objectstore.ObjectStore, error) {
	if cfg.S3.EndpointURL == "" {
		log.Printf("No object store endpoint configured; using local store at %s", cfg.Generation.OutputDir)
		return objectstore.NewLocalStore(cfg.Generation.OutputDir), nil
	}
	return objectstore.NewS3Client(&objectstore.S3Config{
		EndpointURL:     cfg.S3.EndpointURL,
		Region:          cfg.S3.Region,
		UseSSL:          cfg.S3.UseSSL,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	})
}
