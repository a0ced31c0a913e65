package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string
var verbose bool
var logger *zap.SugaredLogger

var rootCmd = &cobra.Command{
	Use:   "eznet",
	Short: "Network diagnostics: DNS, TCP, HTTP, ICMP and TLS probes in one pass",
	Long: `eznet runs a battery of independent network probes against one or more
targets and aggregates the results into a single report per target.
Individual probe failures never abort the rest of the scan.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".eznet")
			viper.SetConfigType("yaml")
		}
		viper.SetDefault("timeout", 5)
		viper.SetDefault("concurrent", 50)
		_ = viper.ReadInConfig()

		// init logger
		var l *zap.Logger
		var err error
		if verbose {
			l, err = zap.NewDevelopment()
		} else {
			l, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l.Sugar()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.eznet.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(versionCmd)
}
