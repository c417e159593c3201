package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chatrelay/chatrelay/internal/core"
	"github.com/chatrelay/chatrelay/internal/core/engine"
	errwrap "github.com/chatrelay/chatrelay/internal/errors"
	"github.com/chatrelay/chatrelay/internal/output"
)

var askFormat string

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message through the failover router",
	Long: `Send one message through the same primary/secondary routing the gateway
uses and print the reply. Useful for checking credentials end to end.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(askFormat)
		if err != nil {
			return errwrap.NewInvalidInputError(err.Error())
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		router, _, _, err := buildRouter(cfg)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "provider configuration is invalid")
		}

		result, err := ask(cmd.Context(), router, strings.Join(args, " "))
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatChat(result)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "render response")
		}
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	},
}

// ask routes a single message and maps router failures onto envelopes.
func ask(ctx context.Context, router *engine.Router, message string) (*core.CompletionResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := router.Route(ctx, message, time.Now())
	if err == nil {
		return result, nil
	}

	var allFailed *engine.AllProvidersFailedError
	switch {
	case errors.Is(err, engine.ErrRateLimited):
		return nil, errwrap.NewRateLimitedError("rate limited")
	case errors.As(err, &allFailed):
		return nil, errwrap.WrapAllProvidersFailed(ctx, err, "all providers failed")
	default:
		return nil, errwrap.WrapInternal(ctx, err, "route message")
	}
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askFormat, "format", "f", "table", "output format: table, json, markdown")
}
