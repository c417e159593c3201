package cmd

import (
	"github.com/chatrelay/chatrelay/internal/ailink"
	"github.com/chatrelay/chatrelay/internal/config"
	"github.com/chatrelay/chatrelay/internal/core/engine"
)

// buildRouter wires both provider clients behind a fresh governor.
func buildRouter(cfg *config.Config) (*engine.Router, *ailink.Client, *ailink.Client, error) {
	primary, secondary, err := ailink.NewClients(cfg.AILink)
	if err != nil {
		return nil, nil, nil, err
	}

	governor := engine.NewGovernor(cfg.RateLimit.MinInterval)
	router := engine.NewRouter(governor, primary, secondary, cfg.AILink.DegradedMessage)
	return router, primary, secondary, nil
}
