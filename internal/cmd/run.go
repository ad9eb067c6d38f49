package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/shotcheck/internal/bridge"
	"github.com/harrison/shotcheck/internal/config"
	"github.com/harrison/shotcheck/internal/inference"
	"github.com/harrison/shotcheck/internal/logger"
	"github.com/harrison/shotcheck/internal/pipeline"
	"github.com/harrison/shotcheck/internal/retriever"
	"github.com/harrison/shotcheck/internal/verifier"
)

// envFile is where the API key is looked up when it is not in the environment.
var envFile = ".env"

// newInferenceFactory builds the client factory for a model. Tests replace it.
var newInferenceFactory = func(model string) inference.Factory {
	return inference.GeminiFactory(model)
}

// phases selects what a command runs.
type phases struct {
	retrieve bool
	verify   bool
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Pull screenshots from the device, then verify them",
		Long: `Pull screenshots from the attached device into the staging directory,
then verify each one with the vision model.

The staging directory is deleted and recreated first, so only screenshots
from this run are verified. Verification is skipped if the pull fails.

Exit codes:
  0    all screenshots passed, or none were found
  1    at least one screenshot failed or could not be analyzed
  2    invalid configuration or missing API key
  3    adb missing, pull failed or timed out, staging directory busy
  130  interrupted

Examples:
  shotcheck run
  shotcheck run --serial emulator-5554 --json
  shotcheck run --source /sdcard/DCIM/Screenshots/ --staging ./shots
  shotcheck run --model gemini-2.5-flash --timeout 10m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, phases{retrieve: true, verify: true})
		},
	}

	addRunFlags(cmd)
	return cmd
}

// addRunFlags registers the flags shared by run, pull and verify.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: .shotcheck/config.yaml)")
	cmd.Flags().String("staging", "", "Local staging directory (wiped on pull)")
	cmd.Flags().String("source", "", "Device directory to pull")
	cmd.Flags().String("serial", "", "Device serial when several devices are attached")
	cmd.Flags().String("adb", "", "Path to the adb executable")
	cmd.Flags().String("model", "", "Vision model name")
	cmd.Flags().String("timeout", "", "Maximum run time (e.g., 10m, 1h)")
	cmd.Flags().Bool("json", false, "Print the run result as JSON after the progress output")
	cmd.Flags().Bool("verbose", false, "Show debug output")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
}

// loadConfig loads the config file, applies flags and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var o config.Overrides
	stringFlag := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	o.StagingDir = stringFlag("staging")
	o.DeviceSource = stringFlag("source")
	o.DeviceSerial = stringFlag("serial")
	o.BridgePath = stringFlag("adb")
	o.Model = stringFlag("model")
	o.LogDir = stringFlag("log-dir")

	if timeoutStr := stringFlag("timeout"); timeoutStr != nil {
		timeout, err := time.ParseDuration(*timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", *timeoutStr, err)
		}
		o.Timeout = &timeout
	}

	// Verbose flag overrides config
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level := "debug"
		o.LogLevel = &level
	}

	cfg.MergeWithFlags(o)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// execute wires the components for the selected phases and runs them.
func execute(cmd *cobra.Command, p phases) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return configError(err)
	}

	var apiKey string
	if p.verify {
		apiKey, err = cfg.ResolveAPIKey(envFile)
		if err != nil {
			return configError(err)
		}
	}

	runID := uuid.NewString()

	consoleLog := logger.NewConsoleLogger(cmd.OutOrStdout(), cfg.LogLevel)
	fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel, runID)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	multiLog := logger.NewMultiLogger(consoleLog, fileLog)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var r pipeline.Retriever
	if p.retrieve {
		b := bridge.New()
		b.Path = cfg.BridgePath
		b.Serial = cfg.DeviceSerial
		b.Timeout = cfg.BridgeTimeout
		r = retriever.New(b)
	}

	var v pipeline.Verifier
	if p.verify {
		v = verifier.New(verifier.Options{
			APIKey:    apiKey,
			NewClient: newInferenceFactory(cfg.Model),
			Criteria: verifier.Criteria{
				Prompt:   cfg.Prompt,
				Keywords: cfg.Keywords,
			},
			Extensions:  cfg.Extensions,
			CallTimeout: cfg.InferenceTimeout,
			Logger:      multiLog,
		})
	}

	multiLog.LogDebug(fmt.Sprintf("run %s, log file %s", runID, fileLog.Path()))
	if p.verify {
		switch {
		case apiKey == "":
			multiLog.LogWarn(fmt.Sprintf("%s environment variable not set; screenshots will not be verified", cfg.APIKeyEnv))
		case strings.TrimSpace(os.Getenv(cfg.APIKeyEnv)) == "":
			multiLog.LogInfo(fmt.Sprintf("Using %s from %s", cfg.APIKeyEnv, envFile))
		}
	}

	result, _ := pipeline.New(r, v, multiLog).Run(ctx, pipeline.Config{
		RunID:    runID,
		Source:   cfg.DeviceSource,
		Staging:  cfg.StagingDir,
		Retrieve: p.retrieve,
		Verify:   p.verify,
	})

	if errors.Is(result.Err, inference.ErrMissingCredential) {
		result.Err = fmt.Errorf("%s environment variable not set: %w", cfg.APIKeyEnv, result.Err)
	}
	if result.Err != nil {
		multiLog.LogError(fmt.Sprintf("Run %s aborted: %v (full log: %s)", runID, result.Err, fileLog.Path()))
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	}

	return runError(result)
}
