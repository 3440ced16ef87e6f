/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/config"
	"github.com/allbin/go-iuu/internal/logging"
	"github.com/allbin/go-iuu/internal/metrics"
	"github.com/allbin/go-iuu/internal/tui/components"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	v       = config.New()

	cfg            *config.Config
	logger         = zap.NewNop()
	registry       *prometheus.Registry
	sessionMetrics *iuu.Metrics
	stopMetrics    context.CancelFunc
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "iuutool",
	Short: "Drive Infinity USB Unlimited smart card programmers",
	Long: `iuutool talks to WB Electronics Infinity USB Unlimited programmers over
usbfs. It can list attached programmers, power and clock a card, read and
decode its Answer To Reset, exchange APDUs and capture card traffic.

Settings are read from iuu.yaml in the working directory or
$HOME/.config/iuu, and can be overridden with IUU_* environment variables
(e.g. IUU_CARD_CLOCK=4000000) or the flags below.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		l, err := logging.InitLogger(c.Logging)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		cfg, logger = c, l.With(zap.String("run", runID()))

		registry = metrics.NewRegistry()
		sessionMetrics = iuu.NewMetrics(registry)
		if c.Metrics.Listen == "" {
			return nil
		}

		srv, err := metrics.Listen(c.Metrics.Listen, c.Metrics.Path, registry, logger)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		stopMetrics = cancel
		go func() {
			if err := srv.Serve(ctx); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopMetrics != nil {
			stopMetrics()
		}
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./iuu.yaml or $HOME/.config/iuu/iuu.yaml)")
	flags.StringP("serial", "s", "", "select the programmer by USB serial number")
	flags.IntP("index", "i", 0, "select the programmer by position in 'iuutool list'")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console, json")
	flags.String("metrics-listen", "", "serve Prometheus metrics on this address, e.g. :9100")

	for key, flag := range map[string]string{
		"device.serial":  "serial",
		"device.index":   "index",
		"logging.level":  "log-level",
		"logging.format": "log-format",
		"metrics.listen": "metrics-listen",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// selectDevice finds the configured programmer.
func selectDevice() (iuu.DeviceInfo, error) {
	devices, err := iuu.ListDevicesIn(cfg.Device.SysfsRoot)
	if err != nil {
		return iuu.DeviceInfo{}, fmt.Errorf("list devices: %w", err)
	}
	return iuu.SelectDevice(devices, cfg.Device.Serial, cfg.Device.Index)
}

// openSession opens the configured programmer.
func openSession() (*iuu.Session, iuu.DeviceInfo, error) {
	info, err := selectDevice()
	if err != nil {
		return nil, info, err
	}

	t, err := iuu.OpenUSB(info, cfg.Device.USBOptions()...)
	if err != nil {
		return nil, info, err
	}
	info = t.Info()
	s, err := iuu.NewSession(t,
		iuu.WithLogger(logger.With(zap.Stringer("device", info))),
		iuu.WithMetrics(sessionMetrics),
	)
	if err != nil {
		t.Close()
		return nil, info, err
	}
	logger.Info("opened programmer",
		zap.Stringer("device", info),
		zap.String("name", info.Name),
		zap.Int("interface", info.Interface),
		zap.String("endpoints", fmt.Sprintf("%02X/%02X", info.EndpointIn, info.EndpointOut)),
	)
	return s, info, nil
}

// cardLine parses the card section of the config.
func cardLine(c config.CardConfig) (components.LineInfo, error) {
	vcc, err := c.VCCLevel()
	if err != nil {
		return components.LineInfo{}, err
	}
	parity, err := c.ParityCode()
	if err != nil {
		return components.LineInfo{}, err
	}
	stop, err := c.StopBitCode()
	if err != nil {
		return components.LineInfo{}, err
	}
	pacing, err := c.PacingSpec()
	if err != nil {
		return components.LineInfo{}, err
	}
	wait, err := c.ResetWaitMillis()
	if err != nil {
		return components.LineInfo{}, err
	}
	return components.LineInfo{
		VCC:      vcc,
		Clock:    c.Clock,
		Baud:     c.Baud,
		Parity:   parity,
		StopBits: stop,
		Pacing:   pacing,

		ResetWait: wait,
	}, nil
}

// powerCard applies supply, clock and UART line settings. RST is left
// released.
func powerCard(s *iuu.Session, line components.LineInfo) (iuu.ClockSolution, error) {
	if err := s.SetVCC(line.VCC); err != nil {
		return iuu.ClockSolution{}, fmt.Errorf("set vcc: %w", err)
	}
	sol, err := s.SetClock(line.Clock)
	if err != nil {
		return sol, fmt.Errorf("set clock: %w", err)
	}
	if err := s.UARTOn(); err != nil {
		return sol, fmt.Errorf("uart on: %w", err)
	}

	if line.Baud == 9600 && line.Parity == iuu.ParityEven && line.StopBits == iuu.OneStopBit {
		return sol, nil
	}
	if b, err := iuu.BaudRateFor(int(line.Baud)); err == nil {
		return sol, s.UARTSet(b, line.Parity, line.StopBits)
	}
	actual, err := s.UARTSetCustom(line.Baud, line.Parity, line.StopBits)
	if err != nil {
		return sol, fmt.Errorf("set baud: %w", err)
	}
	logger.Info("custom baud", zap.Uint32("requested", line.Baud), zap.Uint32("actual", actual))
	return sol, nil
}

// runID tags the log lines of one invocation. IUU_RUN_ID overrides it.
func runID() string {
	if id := os.Getenv("IUU_RUN_ID"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	_ = logger.Sync()
	os.Exit(1)
}
