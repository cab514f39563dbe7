// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/cie/internal/config"
	cieerrors "github.com/kraklabs/cie/internal/errors"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive, noHook, withHook bool
	projectID, storeURI, storeUser          string
	storePassword                           string
}

// runInit executes the 'init' CLI command, creating a .cie/project.yaml
// configuration file.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - -y: Non-interactive mode, use all defaults (default: false)
//   - --project-id: Project identifier (default: directory name)
//   - --store-uri, --store-user, --store-password: graph store connection
//   - --no-hook / --hook: control git hook installation
//
// Examples:
//
//	cie init                              Interactive setup
//	cie init -y                           Use all defaults
//	cie init --store-uri bolt://db:7687   Configure a remote store
func runInit(args []string) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		cieerrors.FatalError(cieerrors.NewInternalError(
			"cannot get current directory",
			err.Error(),
			"re-run 'cie init' from a valid working directory",
			err,
		), false)
	}

	configPath := config.ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		cieerrors.FatalError(cieerrors.NewConfigError(
			fmt.Sprintf("%s already exists", configPath),
			"a configuration file is already present for this project",
			"use --force to overwrite it",
			nil,
		), false)
	}

	cfg := createInitConfig(cwd, flags)
	reader := bufio.NewReader(os.Stdin)

	if !flags.nonInteractive {
		runInteractiveConfig(reader, cfg)
	}

	saveInitConfig(cwd, configPath, cfg)
	handleHookInstallation(reader, flags)
	printNextSteps(flags.noHook)
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier")
	fs.StringVar(&f.storeURI, "store-uri", "", "Graph store bolt URI")
	fs.StringVar(&f.storeUser, "store-user", "", "Graph store user")
	fs.StringVar(&f.storePassword, "store-password", "", "Graph store password")
	fs.BoolVar(&f.noHook, "no-hook", false, "Skip git hook installation (hook is installed by default)")
	fs.BoolVar(&f.withHook, "hook", false, "Install git hook without prompting (for scripts)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie init [options]

Creates .cie/project.yaml configuration file.

Examples:
  cie init -y
  cie init --store-uri bolt://db.internal:7687 --store-user neo4j
  cie init --hook

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(cwd string, f initFlags) *config.Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := config.DefaultConfig(pid, cwd)
	if f.storeURI != "" {
		cfg.Store.URI = f.storeURI
	}
	if f.storeUser != "" {
		cfg.Store.User = f.storeUser
	}
	if f.storePassword != "" {
		cfg.Store.Password = f.storePassword
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("CIE Project Configuration")
	fmt.Println("=========================")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)
	cfg.Store.URI = prompt(reader, "Graph store bolt URI", cfg.Store.URI)
	cfg.Store.User = prompt(reader, "Graph store user", cfg.Store.User)
	fmt.Println()
}

func saveInitConfig(cwd, configPath string, cfg *config.Config) {
	if err := os.MkdirAll(config.ConfigDir(cwd), 0750); err != nil {
		cieerrors.FatalError(cieerrors.NewPermissionError(
			"cannot create .cie directory",
			err.Error(),
			"check write permissions for the project directory",
			err,
		), false)
	}
	if err := config.Save(cfg, configPath); err != nil {
		cieerrors.FatalError(cieerrors.NewConfigError(
			"cannot save configuration",
			err.Error(),
			"check write permissions for .cie/project.yaml",
			err,
		), false)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)
}

func handleHookInstallation(reader *bufio.Reader, f initFlags) {
	if f.noHook {
		return
	}
	shouldInstall := f.withHook
	if !f.withHook && !f.nonInteractive {
		fmt.Println()
		hookAnswer := prompt(reader, "Install git hook for auto-reindexing? (Y/n)", "y")
		hookAnswer = strings.ToLower(strings.TrimSpace(hookAnswer))
		shouldInstall = hookAnswer != "n" && hookAnswer != "no"
	} else if f.nonInteractive {
		shouldInstall = true
	}

	if !shouldInstall {
		return
	}
	gitDir, err := findGitDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot find .git directory: %v\n", err)
		return
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")
	if err := installHook(hookPath, false); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot install git hook: %v\n", err)
	} else {
		fmt.Printf("Git hook installed: %s\n", hookPath)
	}
}

func printNextSteps(noHook bool) {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .cie/project.yaml if needed")
	fmt.Println("  2. Start a Neo4j instance reachable at the configured store URI")
	fmt.Println("  3. Run 'cie index' to build the graph")
	fmt.Println("  4. Run 'cie status' to verify indexing")
	if noHook {
		fmt.Println()
		fmt.Println("Tip: Run 'cie install-hook' to enable auto-reindexing on each commit")
	}
}

// prompt displays an interactive prompt and reads user input from stdin,
// returning defaultValue if the user presses Enter without typing anything.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .cie/ to the project's .gitignore file if not already
// present. Silently returns if .gitignore does not exist or cannot be
// modified.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}

	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == ".cie/" || line == ".cie" || line == "/.cie/" || line == "/.cie" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}

	_, _ = f.WriteString("\n# CIE configuration\n.cie/\n")
	fmt.Println("Added .cie/ to .gitignore")
}
