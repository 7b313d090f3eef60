package client

import (
	"fmt"

	"github.com/mwantia/goreview/internal/session"
	"github.com/mwantia/goreview/pkg/log"
	"github.com/spf13/cobra"

	config "github.com/mwantia/goreview/internal/config/server"
)

func openSession(cmd *cobra.Command) (*session.Session, error) {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server configuration: %w", err)
	}

	logger := log.NewLoggerService("goreview", cfg.Log)
	sess, err := session.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}

	return sess, nil
}
