package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/surgeprotector/surgeprotector/internal/config"
	"github.com/surgeprotector/surgeprotector/internal/core/blocklist"
	"github.com/surgeprotector/surgeprotector/internal/core/engine"
	"github.com/surgeprotector/surgeprotector/internal/notify"
	"github.com/surgeprotector/surgeprotector/internal/observability"
)

// lastCycleID is the ID of the most recent update cycle, used as the
// correlation ID when that cycle fails.
var lastCycleID string

// newNotifier builds the reload command runner. Reload output goes to stderr
// so a blocklist written to stdout stays clean. Tests replace it.
var newNotifier = func(cfg *config.Config) engine.Notifier {
	policy := cfg.Policy()
	if policy.OnChange == "" && policy.OnExpire == "" {
		return notify.Nop{}
	}
	return &notify.Exec{
		Shell:   cfg.Notify.Shell,
		Timeout: cfg.Notify.Timeout,
		Stdout:  os.Stderr,
		Stderr:  os.Stderr,
	}
}

// updateDeps are the collaborators of one update run.
type updateDeps struct {
	Logger *logging.Logger
	Audit  *zap.Logger
	Stdout io.Writer
	Clock  func() time.Time
	DryRun bool
}

var updateCmd = &cobra.Command{
	Use:   "update [OUTPUT] [LIMIT]",
	Short: "Update the blocklist file",
	Long: `Update the blocklist file OUTPUT ("-" for stdout).

Addresses with more than LIMIT TCP connections are added with the current
time. Entries older than --ttl are removed; an address that is still
flooding is re-added with a fresh timestamp. When the file changes, the
--command is run. With --expired set, a change that only removed expired
entries runs that command instead.

OUTPUT and LIMIT may also come from blocklist.path and blocklist.limit in the
config file or from SURGEPROTECTOR_BLOCKLIST_PATH and
SURGEPROTECTOR_BLOCKLIST_LIMIT.`,
	Example: `  surgeprotector update /var/lib/tor/blocklist 20 -c "systemctl reload tor"
  surgeprotector update /var/lib/tor/blocklist 20 --ttl 6 -c "systemctl reload tor" -e "pkill -HUP tor"
  surgeprotector update - 5 --dry-run`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyUpdateArgs(viper.GetViper(), args); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateForUpdate(); err != nil {
			return err
		}

		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}

		audit := observability.NewAuditLogger(cfg.Logging)
		defer func() { _ = audit.Sync() }()

		_, err = runUpdate(cmd.Context(), cfg, updateDeps{
			Logger: observability.CLILogger,
			Audit:  audit,
			Stdout: cmd.OutOrStdout(),
			DryRun: dryRun,
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().String("ttl", "", "how long entries stay blocked: a duration (36h) or a number of hours (default 24)")
	updateCmd.Flags().StringP("command", "c", "", "command to run when the blocklist changed")
	updateCmd.Flags().StringP("expired", "e", "", "command to run when only expired entries were removed (default: --command)")
	updateCmd.Flags().String("mode", "", "notification mode: differentiated or simple")
	updateCmd.Flags().Bool("shell", true, "run commands through sh -c")
	updateCmd.Flags().Duration("timeout", config.DefaultNotifyTimeout, "time limit for the reload command")
	updateCmd.Flags().Bool("dry-run", false, "compute the changes without writing the file or running commands")

	_ = viper.BindPFlag("blocklist.ttl", updateCmd.Flags().Lookup("ttl"))
	_ = viper.BindPFlag("notify.on_change", updateCmd.Flags().Lookup("command"))
	_ = viper.BindPFlag("notify.on_expire", updateCmd.Flags().Lookup("expired"))
	_ = viper.BindPFlag("notify.mode", updateCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("notify.shell", updateCmd.Flags().Lookup("shell"))
	_ = viper.BindPFlag("notify.timeout", updateCmd.Flags().Lookup("timeout"))
}

// applyUpdateArgs overrides blocklist.path and blocklist.limit with the
// positional arguments.
func applyUpdateArgs(v *viper.Viper, args []string) error {
	if len(args) > 0 {
		v.Set("blocklist.path", args[0])
	}
	if len(args) > 1 {
		limit, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return fmt.Errorf("%w: LIMIT must be an integer, got %q", config.ErrInvalid, args[1])
		}
		v.Set("blocklist.limit", limit)
	}
	return nil
}

func runUpdate(ctx context.Context, cfg *config.Config, deps updateDeps) (*engine.Report, error) {
	logger := deps.Logger
	audit := deps.Audit
	if audit == nil {
		audit = zap.NewNop()
	}

	store, err := blocklist.Open(cfg.Blocklist.Path)
	if err != nil {
		return nil, err
	}
	if deps.Stdout != nil {
		store = store.WithStdout(deps.Stdout)
	}

	s, err := newSampler(cfg)
	if err != nil {
		return nil, err
	}

	cycle := &engine.Cycle{
		Store:    store,
		Sampler:  s,
		Notifier: newNotifier(cfg),
		Params: engine.Params{
			Limit: cfg.Blocklist.Limit,
			TTL:   cfg.Blocklist.TTL,
		},
		Policy: cfg.Policy(),
		Clock:  deps.Clock,
		DryRun: deps.DryRun,
	}

	report, err := cycle.Run(ctx)
	if report != nil {
		lastCycleID = report.CycleID
	}
	if err != nil {
		return report, err
	}

	cycleField := zap.String("cycle_id", report.CycleID)
	result := report.Result

	if !result.Changed() {
		logger.Debug("Blocklist unchanged",
			cycleField,
			zap.String("path", store.Path()),
			zap.Int("entries", report.Loaded),
			zap.Int("sampled", report.Sampled))
		return report, nil
	}

	for _, address := range result.Expired {
		logger.Info("Expired: "+address, cycleField)
		if !deps.DryRun {
			audit.Info(observability.EventExpired, cycleField, zap.String("address", address))
		}
	}
	for _, address := range result.Added {
		logger.Info("Added: "+address, cycleField)
		if !deps.DryRun {
			record, _ := result.Next.Get(address)
			audit.Info(observability.EventBlocked, cycleField,
				zap.String("address", address),
				zap.Int64("blocked_at", record.BlockedAt))
		}
	}

	summary := []zap.Field{
		cycleField,
		zap.String("path", store.Path()),
		zap.Int("added", len(result.Added)),
		zap.Int("expired", len(result.Expired)),
		zap.Int("entries", result.Next.Len()),
		zap.String("action", string(report.Action.Kind)),
	}
	if report.DryRun {
		logger.Info("Dry run, blocklist not written", summary...)
		logger.Debug("Dry run blocklist", cycleField, zap.Strings("addresses", result.Next.Addresses()))
		return report, nil
	}
	logger.Info("Blocklist updated", summary...)

	if report.Notified {
		fields := []zap.Field{cycleField, zap.String("command", report.Action.Command)}
		if report.NotifyErr != nil {
			logger.Warn("Reload command failed", append(fields, zap.Error(report.NotifyErr))...)
			audit.Info(observability.EventNotified, append(fields, zap.Bool("ok", false), zap.Error(report.NotifyErr))...)
		} else {
			logger.Debug("Reload command finished", fields...)
			audit.Info(observability.EventNotified, append(fields, zap.Bool("ok", true))...)
		}
	}

	return report, nil
}
