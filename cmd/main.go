package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/FFengIll/psdiff/pkg"
)

// errDifferences makes the process exit 1 without printing an error.
var errDifferences = errors.New("differences found")

var (
	configPath   = ""
	snapshotPath = ""
	listerKind   = ""
	inputPath    = ""
	logLevel     = ""

	config *pkg.Config
	log    *logrus.Entry
)

var rootCmd = &cobra.Command{
	Use:           "psdiff",
	Short:         "Compare the running process tree with a stored snapshot",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pkg.LoadConfig(configPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("snapshot") {
			cfg.Snapshot = snapshotPath
		}
		if flags.Changed("lister") {
			cfg.Lister = listerKind
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}

		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

		config = cfg
		log = logrus.WithField("run", xid.New().String())
		log.WithField("snapshot", cfg.Snapshot).Debugln("config loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(manualCmd)
	rootCmd.AddCommand(graphCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file path (default "+pkg.DefaultConfigPath+")")
	flags.StringVarP(&snapshotPath, "snapshot", "s", pkg.DefaultSnapshotPath, "snapshot file path")
	flags.StringVarP(&listerKind, "lister", "l", "ps", "process lister: ps or gopsutil")
	flags.StringVarP(&inputPath, "input", "i", "", "read the process listing from a file (- for stdin)")
	flags.StringVar(&logLevel, "log-level", "warning", "log level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errDifferences):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "psdiff:", err)
		os.Exit(2)
	}
}
