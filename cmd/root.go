package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/veldhuizen/magister-cli/config"
	"github.com/veldhuizen/magister-cli/magister"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *magister.Client
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "magister-cli",
	Short: "A command line client for the Magister school portal",
	Long: `magister-cli talks to your school's Magister portal. It can list your
appointments, courses, message folders and contact persons, and create
personal calendar appointments.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(testCmd)
}

// initializeApp initializes the configuration and the portal client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	opts := []magister.Option{
		magister.WithKeepLoggedIn(cfg.Auth.KeepLoggedIn),
	}
	if cfg.Auth.Username != "" {
		opts = append(opts, magister.WithCredentials(cfg.Auth.Username, cfg.Auth.Password))
	}
	if cfg.Auth.SessionID != "" {
		opts = append(opts, magister.WithSessionID(cfg.Auth.SessionID))
	}

	client, err = magister.NewClient(context.Background(), cfg.School, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create Magister client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when stderr is a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to the Magister portal",
	Long:  `Log in to your school's Magister portal and display basic session information.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to %s...\n", client.BaseURL())

	// Login already happened during client creation
	fmt.Println("✓ Login successful!")
	fmt.Printf("- Session id: %s\n", client.SessionID())

	fmt.Printf("\nPrivileges:\n")
	for _, resource := range []string{"afspraken", "absenties", "aanmeldingen", "berichten", "contactpersonen"} {
		fmt.Printf("  • %-16s read: %-5s create: %v\n", resource,
			fmt.Sprint(client.Can(resource, magister.ActionRead)),
			client.Can(resource, magister.ActionCreate))
	}

	return nil
}
