package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avinashfc/agentic-visionxtract/bootstrap"
	"github.com/avinashfc/agentic-visionxtract/config"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the visionxtract server",
	Long: `Start the VisionXtract server.

The server will:
  - Load configuration from visionxtract.yaml (or --config)
  - Or load configuration from VISIONXTRACT_* environment variables
  - Serve the enabled module surfaces under /api/<module>/<operation>
  - Route inter-module calls in-process or over HTTP per configuration

Environment variables:
  VISIONXTRACT_SERVER_PORT   - Server port (default: 8000)
  VISIONXTRACT_A2A_MODE      - Dispatch mode: in_process, http, auto
  VISIONXTRACT_LOG_LEVEL     - Log level: debug, info, warn, error
  MODULE_<NAME>_URL          - Address override for one module, e.g.
                               MODULE_LLM_JUDGE_URL=http://judge:8003

Examples:
  visionxtract serve
  visionxtract serve --config /etc/visionxtract/config.yaml
  visionxtract serve --hot-reload=false

  # Env vars only:
  MODULE_OCR_URL=http://ocr:8002 visionxtract serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile && !config.HasEnvConfig() {
			fmt.Println("No configuration found, running with defaults")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
