// Package cmd implements the command-line interface for abedge.
// It provides the root command and subcommands for rendering experiments into HTML.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/abedge/cmd/httpd"
	"github.com/jonesrussell/abedge/cmd/inspect"
	"github.com/jonesrussell/abedge/cmd/process"
	"github.com/jonesrussell/abedge/internal/config"
)

// Version is set at build time with -ldflags "-X github.com/jonesrussell/abedge/cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	// rootCmd represents the root command for the abedge CLI.
	rootCmd = &cobra.Command{
		Use:   "abedge",
		Short: "Server-side A/B variant rendering",
		Long: `abedge applies experiment variants to HTML on the server: Treatment markup is
resolved to the assigned variant and DOM changes are applied before the page is sent.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Parse flags early so --config and --debug are known before config loads
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "abedge version %s\n", Version)
		},
	})

	rootCmd.AddCommand(process.Command())
	rootCmd.AddCommand(inspect.Command())
	rootCmd.AddCommand(httpd.Command())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// .env is optional; existing environment variables win
	_ = godotenv.Load()

	config.Configure(viper.GetViper())

	// Config file is optional: defaults and environment variables still apply
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}

	return nil
}
