package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eznet/eznet/internal/ports"
	"github.com/eznet/eznet/internal/probe"
)

// teardownGrace gives in-flight probes a moment past the scan deadline to
// record their own timeout result before the context cuts them off.
const teardownGrace = time.Second

var (
	scanPortSpec   string
	scanTimeout    int
	scanConcurrent int
	scanSSL        bool
	scanJSON       bool
	scanRate       float64
)

var scanCmd = &cobra.Command{
	Use:   "scan <host> [host...]",
	Short: "Probe one or more targets (DNS, TCP, HTTP, ICMP, optional TLS)",
	Long: `Run the full probe battery against each target. Ports come from --port:
a single port ("443"), a range ("80-90"), a comma-separated mix
("80,443,8000-8010") or the named set "common".

DNS and ICMP run once per target; each port gets a TCP probe, plus HTTP on
web ports (80, 443, 8080, 8443) and, with --ssl, certificate analysis on
TLS ports.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args)
	},
}

func init() {
	flags := scanCmd.Flags()
	flags.StringVarP(&scanPortSpec, "port", "p", "80", `ports to probe: "443", "80-90", "80,443,8443" or "common"`)
	flags.IntVarP(&scanTimeout, "timeout", "t", 0, "per-probe and overall timeout in seconds (default 5)")
	flags.IntVarP(&scanConcurrent, "concurrent", "c", 0, "max simultaneous socket operations (default 50)")
	flags.BoolVar(&scanSSL, "ssl", false, "analyze TLS certificates on eligible ports")
	flags.BoolVar(&scanJSON, "json", false, "emit JSON instead of text")
	flags.Float64Var(&scanRate, "rate", 0, "probe launches per second, 0 = unlimited")
	flags.SetNormalizeFunc(normalizeScanFlags)
}

// normalizeScanFlags accepts a few aliases kept for muscle memory.
func normalizeScanFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "ports":
		name = "port"
	case "max-concurrent":
		name = "concurrent"
	}
	return pflag.NormalizedName(name)
}

func runScan(cmd *cobra.Command, args []string) error {
	timeout := scanTimeout
	if timeout <= 0 {
		timeout = viper.GetInt("timeout")
	}
	if timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second")
	}
	concurrent := scanConcurrent
	if concurrent <= 0 {
		concurrent = viper.GetInt("concurrent")
	}
	if concurrent < 1 {
		return fmt.Errorf("concurrent must be at least 1")
	}

	portSet, err := ports.Expand(scanPortSpec)
	if err != nil {
		return err
	}

	targets := make([]probe.Target, 0, len(args))
	for _, arg := range args {
		target, err := probe.NewTarget(arg, portSet)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	scanner := probe.NewScanner(probe.Options{
		Timeout:       time.Duration(timeout) * time.Second,
		MaxConcurrent: concurrent,
		SSL:           scanSSL,
		RateLimit:     scanRate,
		Logger:        logger,
	})
	logger.Infow("scan starting",
		"targets", len(targets),
		"ports", len(portSet),
		"timeout_s", timeout,
		"concurrent", concurrent,
		"ssl", scanSSL,
		"icmp_method", scanner.ICMPMethod(),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second+teardownGrace)
	defer cancel()

	var progress *progressPrinter
	if !scanJSON && len(targets) > 1 {
		progress = newProgressPrinter(len(targets))
		progress.Start()
	}

	records := scanner.ScanBatch(ctx, targets, func(record *probe.ScanRecord, err error) {
		if progress == nil {
			return
		}
		progress.Increment(err == nil && record != nil)
	})
	if progress != nil {
		progress.Stop()
	}

	if scanJSON {
		return renderJSON(os.Stdout, records)
	}
	for _, record := range records {
		if record == nil {
			continue
		}
		renderText(os.Stdout, record)
	}
	return nil
}
