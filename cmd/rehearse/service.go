package main

import (
	"context"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse"
	redisAdapter "github.com/rehearse-dev/rehearse/internal/adapters/redis"
	"github.com/rehearse-dev/rehearse/internal/logging"
	"github.com/rehearse-dev/rehearse/pkg/flowfile"
)

// buildService wires a Service from command flags: in-memory stores by
// default, Redis-backed stores plus the distributed locker when --redis
// is set.
func buildService(cmd *cobra.Command) (*rehearse.Service, *slog.Logger, error) {
	levelFlag, _ := cmd.Flags().GetString("log-level")
	logger := logging.New(logging.ParseLevel(levelFlag))

	redisURL, _ := cmd.Flags().GetString("redis")
	if redisURL == "" {
		return rehearse.New(rehearse.WithLogger(logger)), logger, nil
	}

	opt, err := backend.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --redis URL: %w", err)
	}
	client := backend.NewClient(opt)
	if err := client.Ping(cmd.Context()).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis unreachable: %w", err)
	}

	svc := rehearse.New(
		rehearse.WithLogger(logger),
		rehearse.WithFlowStore(redisAdapter.NewFlowStore(client)),
		rehearse.WithSessionStore(redisAdapter.NewSessionStore(client)),
		rehearse.WithLocker(redisAdapter.NewLocker(client, "rehearse:")),
	)
	return svc, logger, nil
}

// seedFlows loads flow files into the store as drafts so a freshly
// started server has something to run.
func seedFlows(ctx context.Context, svc *rehearse.Service, paths []string, trainerID string, logger *slog.Logger) error {
	for _, path := range paths {
		doc, err := flowfile.Load(path)
		if err != nil {
			return err
		}
		owner := doc.TrainerID
		if owner == "" {
			owner = trainerID
		}
		flow, err := svc.CreateDraft(ctx, owner, doc.Name, doc.Nodes, doc.Edges, doc.Settings)
		if err != nil {
			return fmt.Errorf("seed %s: %w", path, err)
		}
		logger.Info("flow loaded", "flow_id", flow.ID, "trainer_id", owner, "name", flow.Name)
	}
	return nil
}
