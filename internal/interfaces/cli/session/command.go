// Package session holds operator commands for inspecting and purging stored
// roll-call sessions without going through the HTTP API.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quickrollcall/rollcall/internal/application/rollcall/dto"
	"github.com/quickrollcall/rollcall/internal/infrastructure/cache"
	"github.com/quickrollcall/rollcall/internal/infrastructure/config"
	"github.com/quickrollcall/rollcall/internal/infrastructure/repository"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
)

const commandTimeout = 10 * time.Second

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session maintenance tools",
		Long:  `Inspect or purge roll-call sessions stored in Redis.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newShowCommand(),
		newPurgeCommand(),
	)

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session",
		Long:  `Print a session as JSON. Token values and the owner token are omitted.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func newPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <session-id>",
		Short: "Delete a session",
		Long:  `Delete a session together with its submitted-device set.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runPurge,
	}
}

func initEnv() (*config.Config, *cache.Connector, logger.Interface, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	return cfg, cache.NewConnector(cfg.Redis, log.Named("redis")), log, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, connector, log, err := initEnv()
	if err != nil {
		return err
	}
	defer connector.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	repo := repository.NewSessionRepository(cache.NewStore(connector, log), cfg.Session.TTL())
	s, err := repo.GetByID(ctx, args[0])
	if err != nil {
		log.Errorw("failed to load session", "session_id", args[0], "error", err)
		return fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return fmt.Errorf("session %s not found", args[0])
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(dto.ToOwnerSessionDTO(s))
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, connector, log, err := initEnv()
	if err != nil {
		return err
	}
	defer connector.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	repo := repository.NewSessionRepository(cache.NewStore(connector, log), cfg.Session.TTL())
	existed, err := repo.Delete(ctx, args[0])
	if err != nil {
		log.Errorw("failed to purge session", "session_id", args[0], "error", err)
		return fmt.Errorf("failed to purge session: %w", err)
	}

	if existed {
		log.Infow("session purged", "session_id", args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", args[0])
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "session %s not found\n", args[0])
	return nil
}
