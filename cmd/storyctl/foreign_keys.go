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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomoncle/storyboard"
)

const ArgTable = "table"

var foreignKeysCmd = addCommand(rootCmd, &cobra.Command{
	Use:     "foreign-keys",
	Aliases: []string{"fk"},
	Short:   "Shows the foreign keys added by the add_foreign_keys migration.",
})

var foreignKeysListCmd = addCommand(foreignKeysCmd, &cobra.Command{
	Use:   "list",
	Short: "Lists the constraints, from migrate.foreign_key_file when set.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString(ArgOutput)
		out, err := newPrinter(cmd.OutOrStdout(), format)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fk := storyboard.ForeignKeys(cfg)
		if table, _ := cmd.Flags().GetString(ArgTable); table != "" {
			return out.foreignKeys(fk.GetConstraintsByTable(table))
		}
		return out.foreignKeys(fk.ListAllConstraints())
	},
}, func(cmd *cobra.Command) {
	cmd.Flags().String(ArgTable, "", "Only constraints declared on this table.")
})

var foreignKeysExportCmd = addCommand(foreignKeysCmd, &cobra.Command{
	Use:   "export FILE",
	Short: "Writes the constraints as YAML, a starting point for migrate.foreign_key_file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fk := storyboard.ForeignKeys(cfg)
		if errs := fk.ValidateConstraints(); len(errs) > 0 {
			return errs[0]
		}
		if err := fk.ExportToFile(args[0]); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d foreign keys written to %s\n", len(fk.ListAllConstraints()), args[0])
		return err
	},
})
