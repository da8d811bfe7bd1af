// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// lora-wizard is an interactive CLI that uploads versioned LoRA training
// artifacts to the Hugging Face Hub over git+LFS and downloads published
// checkpoints back into a local model directory.
package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/fatih/color"
	"github.com/google/lora-wizard/internal/cleanup"
	"github.com/google/lora-wizard/internal/gitx"
	"github.com/google/lora-wizard/internal/settings"
	"github.com/google/lora-wizard/pkg/hub"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func say(format string, a ...any)  { fmt.Printf(cyan("::")+" "+format+"\n", a...) }
func ok(format string, a ...any)   { fmt.Printf(green("ok:")+" "+format+"\n", a...) }
func warn(format string, a ...any) { fmt.Printf(yellow("warning:")+" "+format+"\n", a...) }

var rootCmd = &cobra.Command{
	Use:   "lora-wizard [upload|download]",
	Short: "Interactive wizard for publishing and fetching LoRA checkpoints",
	// Silence errors because main prints them itself.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !gitx.NativeGitAvailable() {
			return errors.New("git is required but was not found in PATH")
		}
		if !gitx.LFSAvailable() {
			return errors.New("git-lfs is required but was not found in PATH (https://git-lfs.com)")
		}
		cleanup.HookInterrupt()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// No subcommand: ask which way we are moving data.
		choice, err := promptChoice("What would you like to do?", []string{
			"Upload checkpoints to the Hub",
			"Download checkpoints from the Hub",
		})
		if err != nil {
			return err
		}
		switch choice {
		case 0:
			return runUpload(cmd)
		default:
			return runDownload(cmd)
		}
	},
}

var uploadCmd = &cobra.Command{
	Use:           "upload",
	Short:         "Publish epoch checkpoints from a local training run",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd)
	},
}

var downloadCmd = &cobra.Command{
	Use:           "download",
	Short:         "Fetch published checkpoints into a local model directory",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd)
	},
}

// apiEndpoint resolves the hub base URL from settings, falling back to the
// public endpoint.
func apiEndpoint(s settings.Settings) (*url.URL, error) {
	if s.Endpoint == "" {
		return hub.DefaultEndpoint, nil
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing endpoint %q", s.Endpoint)
	}
	return u, nil
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
}

func main() {
	defer cleanup.Run()
	if err := rootCmd.Execute(); err != nil {
		cleanup.Run()
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		os.Exit(1)
	}
}
