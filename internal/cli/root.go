// Package cli teampulse 命令行入口
package cli

import (
	"io"
	"log/slog"

	"TeamPulse/internal/config"

	"github.com/spf13/cobra"
)

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "teampulse",
		Short: "TeamPulse - team coordination engine",
		Long:  "Karma, ideas, tasks, standups and polls for a small team, backed by a relational store.",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// loadConfig 读配置并按级别初始化默认 logger，日志写 stderr
func loadConfig(opts *RootOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	setupLogger(cmd.ErrOrStderr(), level)
	return cfg, nil
}

func setupLogger(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
