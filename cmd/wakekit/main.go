// Command wakekit runs the sleep/wake lifecycle coordinator against
// the real platform so the periodic mechanisms can be observed across
// suspend cycles.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wakekit/wakekit/pkg/hold"
	"github.com/wakekit/wakekit/pkg/lifecycle"
	"github.com/wakekit/wakekit/pkg/periodic"
	"github.com/wakekit/wakekit/pkg/pmbus"
	"github.com/wakekit/wakekit/pkg/presleep"
)

var version = "0.1.0"

var (
	flagLogFormat  string
	flagBlankAfter time.Duration
	flagWayland    bool
	flagNoHold     bool
	flagNoBus      bool
	flagNoHooks    bool
	flagNoWork     bool
	flagNoTimer    bool
	flagNoAlarm    bool
)

var rootCmd = &cobra.Command{
	Use:   "wakekit",
	Short: "Observe a device's sleep/wake lifecycle",
	Long: `wakekit holds the platform awake, watches suspend/resume transitions on
the system bus, hooks into the display's pre-sleep chain, and runs three
self-rearming periodic mechanisms (worker-pool, timer-context, and a
wake-capable RTC alarm) whose firings it logs with RTC timestamps.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the coordinator and log activity until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(flagLogFormat)

		cfg := lifecycle.Config{
			Features: features(),
			Log:      log,
		}

		if cfg.Features.Has(lifecycle.FeatureWakeHold) {
			holds, err := hold.NewDbusSource()
			if err != nil {
				return fmt.Errorf("wake hold source: %w", err)
			}
			cfg.Holds = holds
		}

		if cfg.Features.Has(lifecycle.FeatureSleepBus) {
			dispatcher := pmbus.NewDispatcher()
			source, err := pmbus.NewDbusSource(dispatcher)
			if err != nil {
				return fmt.Errorf("suspend/resume bus source: %w", err)
			}
			defer source.Close()
			cfg.Bus = dispatcher
		}

		if cfg.Features.Has(lifecycle.FeaturePreSleepHooks) {
			chain := presleep.NewChain()
			if flagWayland {
				watcher, err := presleep.NewWaylandWatcher(chain, flagBlankAfter)
				if err != nil {
					return fmt.Errorf("display watcher: %w", err)
				}
				defer watcher.Close()
			}
			cfg.Hooks = chain
		}

		if cfg.Features.Has(lifecycle.FeatureCooperative) {
			pool := periodic.NewWorkerPool(2)
			defer pool.Close()
			cfg.Pool = pool
		}

		if cfg.Features.Has(lifecycle.FeatureTimer) {
			cfg.Timers = periodic.RuntimeTimers{}
		}

		if cfg.Features.Has(lifecycle.FeatureWakeAlarm) {
			cfg.Alarms = periodic.NewPlatformAlarms()
		}

		coordinator, err := lifecycle.New(cfg)
		if err != nil {
			return err
		}

		if err := coordinator.Start(); err != nil {
			return err
		}
		log.Info("coordinator active", "version", version)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down")

		return coordinator.Stop()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of wakekit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wakekit v%s\n", version)
	},
}

// features composes the active subsystem set from the disable flags.
func features() lifecycle.Feature {
	f := lifecycle.FeatureAll
	for flag, feature := range map[*bool]lifecycle.Feature{
		&flagNoHold:  lifecycle.FeatureWakeHold,
		&flagNoBus:   lifecycle.FeatureSleepBus,
		&flagNoHooks: lifecycle.FeaturePreSleepHooks,
		&flagNoWork:  lifecycle.FeatureCooperative,
		&flagNoTimer: lifecycle.FeatureTimer,
		&flagNoAlarm: lifecycle.FeatureWakeAlarm,
	} {
		if *flag {
			f &^= feature
		}
	}

	return f
}

func newLogger(format string) *slog.Logger {
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, nil)
	default:
		handler = slog.NewTextHandler(os.Stdout, nil)
	}

	return slog.New(handler)
}

func init() {
	runCmd.Flags().StringVar(&flagLogFormat, "log-format", "text", "Log output format: text or json")
	runCmd.Flags().DurationVar(&flagBlankAfter, "blank-after", 5*time.Minute, "Idle time before the display pre-sleep chain suspends")
	runCmd.Flags().BoolVar(&flagWayland, "wayland", false, "Drive the pre-sleep chain from the compositor's idle state")
	runCmd.Flags().BoolVar(&flagNoHold, "no-hold", false, "Do not hold a wake hold")
	runCmd.Flags().BoolVar(&flagNoBus, "no-bus", false, "Do not watch the suspend/resume bus")
	runCmd.Flags().BoolVar(&flagNoHooks, "no-hooks", false, "Do not register pre-sleep hooks")
	runCmd.Flags().BoolVar(&flagNoWork, "no-work", false, "Do not run the worker-pool periodic task")
	runCmd.Flags().BoolVar(&flagNoTimer, "no-timer", false, "Do not run the timer-context periodic task")
	runCmd.Flags().BoolVar(&flagNoAlarm, "no-alarm", false, "Do not run the wake-capable alarm")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
