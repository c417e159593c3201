package cmd

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/internal/ailink"
	"github.com/chatrelay/chatrelay/internal/core"
	"github.com/chatrelay/chatrelay/internal/core/engine"
	errwrap "github.com/chatrelay/chatrelay/internal/errors"
	"github.com/chatrelay/chatrelay/internal/observability"
	"github.com/chatrelay/chatrelay/internal/output"
)

const doctorProbeMessage = "Reply with the single word: ok"

var (
	doctorProbe   bool
	doctorTimeout time.Duration
	doctorFormat  string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the runtime and the configured provider pair.

With --probe, a short completion is sent to each provider directly,
bypassing the rate governor and failover.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLILogger
		format, err := output.ParseFormat(doctorFormat)
		if err != nil {
			return errwrap.NewInvalidInputError(err.Error())
		}

		logger.Info("=== " + AppName + " doctor ===")
		allChecks := true
		totalChecks := 3

		goVersion := runtime.Version()
		logger.Info(fmt.Sprintf("[1/%d] Checking Go runtime... ✅ %s %s/%s", totalChecks, goVersion, runtime.GOOS, runtime.GOARCH),
			zap.String("go_version", goVersion))

		version := crucible.GetVersion()
		if version.Gofulmen != "" && version.Crucible != "" {
			logger.Info(fmt.Sprintf("[2/%d] Checking Gofulmen/Crucible... ✅ %s / %s", totalChecks, version.Gofulmen, version.Crucible))
		} else {
			logger.Warn(fmt.Sprintf("[2/%d] Checking Gofulmen/Crucible... ⚠️  version metadata unavailable", totalChecks))
			allChecks = false
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			logger.Error(fmt.Sprintf("[3/%d] Checking configuration... ❌ invalid", totalChecks), zap.Error(err))
			return err
		}
		missing := missingKeys(cfg.AILink)
		if len(missing) == 0 {
			logger.Info(fmt.Sprintf("[3/%d] Checking configuration... ✅ valid", totalChecks))
		} else {
			logger.Warn(fmt.Sprintf("[3/%d] Checking configuration... ⚠️  missing API key for %s", totalChecks, strings.Join(missing, ", ")))
			allChecks = false
		}

		rows := providerRows(cfg.AILink)
		if doctorProbe {
			primary, secondary, err := ailink.NewClients(cfg.AILink)
			if err != nil {
				return errwrap.WrapConfigInvalid(cmd.Context(), err, "provider configuration is invalid")
			}
			for i, client := range []*ailink.Client{primary, secondary} {
				rows[i].Probe = probeProvider(cmd.Context(), client, doctorTimeout)
				if !strings.HasPrefix(rows[i].Probe, "ok") {
					allChecks = false
				}
			}
		}

		rendered, err := output.NewFormatter(format).FormatProviders(rows)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "render provider table")
		}
		fmt.Fprintln(cmd.OutOrStdout(), rendered)

		if allChecks {
			logger.Info("✅ All checks passed!")
		} else {
			logger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		return nil
	},
}

func missingKeys(cfg ailink.Config) []string {
	var missing []string
	if !cfg.Primary.HasAPIKey() {
		missing = append(missing, string(core.RolePrimary))
	}
	if !cfg.Secondary.HasAPIKey() {
		missing = append(missing, string(core.RoleSecondary))
	}
	return missing
}

func providerRows(cfg ailink.Config) []output.ProviderRow {
	slots := []struct {
		role core.ProviderRole
		cfg  ailink.ProviderConfig
	}{
		{core.RolePrimary, cfg.Primary},
		{core.RoleSecondary, cfg.Secondary},
	}

	rows := make([]output.ProviderRow, 0, len(slots))
	for _, slot := range slots {
		model := slot.cfg.Model
		if model == "" {
			model = ailink.DefaultModel(slot.cfg.AIProvider)
		}
		key := ailink.MaskKey(slot.cfg.APIKey)
		if key == "" {
			key = "missing"
		}
		baseURL := slot.cfg.BaseURL
		if baseURL == "" {
			baseURL = "(default)"
		}
		rows = append(rows, output.ProviderRow{
			Role:    string(slot.role),
			ID:      slot.cfg.DisplayID(),
			Driver:  strings.ToLower(slot.cfg.AIProvider),
			Model:   model,
			BaseURL: baseURL,
			APIKey:  key,
			Timeout: slot.cfg.Timeout.String(),
		})
	}
	return rows
}

// probeProvider sends one short completion and summarises the outcome.
func probeProvider(ctx context.Context, client engine.ProviderClient, timeout time.Duration) string {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	_, err := client.Complete(ctx, doctorProbeMessage)
	latency := time.Since(started).Round(time.Millisecond)
	if err != nil {
		kind := ailink.KindUnknown
		var perr *ailink.ProviderError
		if errors.As(err, &perr) {
			kind = perr.Kind
		}
		return fmt.Sprintf("failed: %s (%s)", kind, latency)
	}
	return fmt.Sprintf("ok (%s)", latency)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorProbe, "probe", false, "send a short completion to each provider")
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 30*time.Second, "per-provider probe timeout")
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "table", "output format: table, json, markdown")
}
