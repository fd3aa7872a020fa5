package cmd

import (
	"context"
	"fmt"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const updateRepo = "veldhuizen/magister-cli"

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records the build version injected by the linker.
func SetVersion(v, t string) {
	version = v
	buildTime = t
}

// selfUpdateCmd represents the selfupdate command
var selfUpdateCmd = &cobra.Command{
	Use:   "selfupdate",
	Short: "Update magister-cli to the latest release",
	// The updater fetches release metadata only; no portal login is needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runSelfUpdate,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("magister-cli %s (built %s)\n", version, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(selfUpdateCmd)
	rootCmd.AddCommand(versionCmd)
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	if _, err := semver.ParseTolerant(version); err != nil {
		return fmt.Errorf("cannot self-update a non-release build (%s)", version)
	}

	ctx := context.Background()
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(updateRepo))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", updateRepo)
	}

	if latest.LessOrEqual(version) {
		fmt.Printf("Already up to date (%s)\n", version)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}

	fmt.Printf("Updating %s → %s...\n", version, latest.Version())
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Printf("✓ Updated to %s\n", latest.Version())
	return nil
}
