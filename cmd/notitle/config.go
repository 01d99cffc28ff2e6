package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/notitle/internal/config"
	"github.com/1broseidon/notitle/internal/ipc"
	"github.com/1broseidon/notitle/internal/tui"
)

// loadConfig loads the file named by --config, or the default location.
func loadConfig(cmd *cobra.Command) (*config.LoadResult, error) {
	path, _ := cmd.Flags().GetString("config")
	return loadConfigFrom(path)
}

func loadConfigFrom(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and its includes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config: ok")
			return nil
		},
	}

	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Print the effective config as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if defaults, _ := cmd.Flags().GetBool("defaults"); !defaults {
				res, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				cfg = res.Config
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	printCmd.Flags().Bool("defaults", false, "Print built-in defaults (no files)")

	explain := &cobra.Command{
		Use:       "explain <yaml.path>",
		Short:     "Show a value and the file and line that set it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Paths(),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			value, src, err := config.Explain(res, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %v\n", args[0], value)
			if src.Kind == config.SourceFile {
				fmt.Fprintf(out, "source: %s:%d:%d\n", src.File, src.Line, src.Column)
			} else {
				fmt.Fprintf(out, "source: %s (%s)\n", src.Kind, src.Name)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			base := config.DefaultConfig()
			if res, err := loadConfigFrom(path); err == nil {
				base = res.Config
			}
			cfg, err := tui.RunWizard(base)
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted, nothing written")
				return nil
			}
			if err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config written")
			if err := ipc.NewClient().Reload(); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "daemon reloaded")
			}
			return nil
		},
	}

	cmd.AddCommand(validate, printCmd, explain, initCmd)
	return cmd
}
