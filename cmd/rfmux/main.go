// Command rfmux reads sensor bits from an RF multiplexer board through a
// NanoVNA-class instrument on the serial console.
//
// It drops into an interactive shell:
//
//	run <port>  - read the bit at one port
//	run all     - read every port
//	save [name] - write one sweep snapshot as a Touchstone file
//	record [n]  - record n timestamped snapshots
//	status      - session state and collected bits
//	quit        - exit
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/dip"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/logger"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/mux"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/rfswitch"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/vna"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rfmux",
		Short:        "Interactive RF multiplexer bit readout",
		SilenceUsage: true,
		RunE:         run,
	}

	flags := cmd.Flags()
	flags.String("device", "", "serial device path (default: discover by USB VID/PID)")
	flags.Int("ports", mux.DefaultSize, "number of multiplexer ports")
	flags.Float64("bit-width", mux.DefaultBitWidth/mux.MHz, "detection window width in MHz")
	flags.Float64("bit-start", mux.DefaultBitStart/mux.MHz, "low window start in MHz")
	flags.Float64("bit-padding", mux.DefaultBitPadding/mux.MHz, "gap between windows in MHz")
	flags.Float64("threshold", mux.DefaultThreshold, "dip threshold in dB")
	flags.String("data-dir", mux.DefaultDataDir, "snapshot output directory")
	flags.String("switch", "gpio", "switch backend: gpio or noop")
	flags.String("config", "", "config file path")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	v.SetEnvPrefix("RFMUX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	log := logger.GetLogger()
	if v.GetBool("verbose") {
		log.SetLevel(logger.DebugLevel)
	}

	sessCfg, err := vna.NewSessionConfig(v.GetString("device"), vna.WithLogger(log))
	if err != nil {
		return err
	}

	session, err := vna.NewSession(sessCfg)
	if err != nil {
		return err
	}
	defer session.Close()

	sw, err := newSwitch(v.GetString("switch"), log)
	if err != nil {
		return err
	}

	status := newStatusLine(cmd.OutOrStdout())

	muxCfg, err := mux.NewConfig(
		mux.WithSize(v.GetInt("ports")),
		mux.WithBitWidth(v.GetFloat64("bit-width")*mux.MHz),
		mux.WithBitStart(v.GetFloat64("bit-start")*mux.MHz),
		mux.WithBitPadding(v.GetFloat64("bit-padding")*mux.MHz),
		mux.WithThreshold(v.GetFloat64("threshold")),
		mux.WithDataDir(v.GetString("data-dir")),
		mux.WithLogger(log),
		mux.WithProgress(func(port int, bit dip.Bit) {
			status.progress("port %d: bit %s", port, bit)
		}),
	)
	if err != nil {
		return err
	}

	m, err := mux.New(session, sw, muxCfg)
	if err != nil {
		return err
	}
	defer m.Close()

	return runShell(cmd, session, m, status)
}

func newSwitch(backend string, log logger.Logger) (rfswitch.Switch, error) {
	switch backend {
	case "gpio":
		return rfswitch.NewPE42512(log)
	case "noop":
		return rfswitch.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown switch backend %q (want gpio or noop)", backend)
	}
}
