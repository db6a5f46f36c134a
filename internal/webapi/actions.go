package webapi

import (
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/propertypartner/social-pipeline/internal/pipeline"
	"github.com/propertypartner/social-pipeline/models"
)

// ServeAction starts the HTTP API.
func ServeAction(c *cli.Context) error {
	logger := pipeline.NewLogger(c.Bool("quiet"))

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	addr := c.String("addr")
	logger.Info("HTTP API listening", "addr", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
