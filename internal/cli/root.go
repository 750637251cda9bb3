// Package cli provides the command-line interface for palettize.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/palettize/internal/version"
)

const (
	// envPrefix prefixes every environment override, e.g. PALETTIZE_METHOD.
	envPrefix = "PALETTIZE"

	// configName is the config file base name searched for in the config paths.
	configName = "palettize"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	v      *viper.Viper
	logger hclog.Logger

	configFile string
}

// NewRootCmd builds the command tree. Each call returns an independent tree
// with its own configuration and logger.
func NewRootCmd() *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: hclog.NewNullLogger(),
	}

	rootCmd := &cobra.Command{
		Use:   "palettize",
		Short: "Reduce the colours of images to a small representative palette",
		Long: `palettize quantizes the colours of one or more images into a bounded
palette using median-cut or octree quantization.

Defaults for most flags can be set in a palettize.yaml file in
~/.config/palettize or the current directory, or through PALETTIZE_*
environment variables (e.g. PALETTIZE_METHOD=octree).`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ~/.config/palettize/palettize.yaml)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newExtractCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command and reports errors on stderr.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

// setup loads configuration and builds the logger for the command being executed.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	a.logger = newLogger(cmd.ErrOrStderr(), a.v.GetBool("verbose"), a.v.GetBool("quiet"))
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded config", "file", used)
	}
	return nil
}

// loadConfig binds flags, environment and the optional config file.
// Precedence is flag, environment, file, default.
func (a *app) loadConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if a.configFile != "" {
		path, err := homedir.Expand(a.configFile)
		if err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	a.v.SetConfigName(configName)
	if home, err := homedir.Dir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".config", configName))
	}
	a.v.AddConfigPath(".")

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// newLogger creates the structured logger used for diagnostics on stderr.
func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Info
	switch {
	case quiet:
		level = hclog.Error
	case verbose:
		level = hclog.Debug
	}

	if w == nil {
		w = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "palettize",
		Output: w,
		Level:  level,
	})
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
