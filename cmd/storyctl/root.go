/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/tomoncle/storyboard"
	"github.com/tomoncle/storyboard/config"
	"github.com/tomoncle/storyboard/utils"
)

const (
	ArgConfig = "config"
	ArgOutput = "output"
)

var rootCmd = &cobra.Command{
	Use:           "storyctl",
	Short:         "Manages stories, their migrations and reference data.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String(ArgConfig, "", "Path to the storyboard YAML config. Environment variables prefixed STORYBOARD_ override it.")
	rootCmd.PersistentFlags().StringP(ArgOutput, "o", formatTable, "Output format: table or json.")
}

func addCommand(parent *cobra.Command, child *cobra.Command, flags ...func(cmd *cobra.Command)) *cobra.Command {
	for _, fn := range flags {
		fn(child)
	}
	parent.AddCommand(child)
	return child
}

// loadConfig reads the --config file and sends console logs to the
// command's error stream, leaving standard output to command results.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	utils.SetConsoleOutput(cmd.ErrOrStderr())
	path, _ := cmd.Flags().GetString(ArgConfig)
	cfg, err := config.Load(path)
	return cfg, errors.Trace(err)
}

// withApp loads the configuration, starts the application for the duration
// of fn and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *storyboard.App, out *printer) error) error {
	format, _ := cmd.Flags().GetString(ArgOutput)
	out, err := newPrinter(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := storyboard.New(ctx, cfg)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = app.Close() }()
	return fn(ctx, app, out)
}

var migrateCmd = addCommand(rootCmd, &cobra.Command{
	Use:   "migrate",
	Short: "Applies pending schema migrations and lists the applied ones.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			if err := app.Migrate(ctx); err != nil {
				return err
			}
			applied, err := app.AppliedMigrations(ctx)
			if err != nil {
				return err
			}
			return out.migrations(applied)
		})
	},
})

var healthCmd = addCommand(rootCmd, &cobra.Command{
	Use:   "health",
	Short: "Pings the database and prints pool statistics.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			status := app.Health(ctx)
			if err := out.health(status, app.Stats()); err != nil {
				return err
			}
			if !status.Healthy {
				return errors.Errorf("database unhealthy: %s", status.LastError)
			}
			return nil
		})
	},
})

var seedCmd = addCommand(rootCmd, &cobra.Command{
	Use:   "seed",
	Short: "Writes a demo project, users, epic and sprint to reference from stories.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *storyboard.App, out *printer) error {
			seeded, err := app.Seed(ctx)
			if err != nil {
				return err
			}
			return out.seeded(seeded)
		})
	},
})
