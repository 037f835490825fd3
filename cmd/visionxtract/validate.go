package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/avinashfc/agentic-visionxtract/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the VisionXtract configuration file.

Checks:
  - YAML syntax is valid
  - Dispatch mode and module URLs are well formed
  - Module endpoints are reachable (optional)

Examples:
  visionxtract validate
  visionxtract validate --config /etc/visionxtract/config.yaml`,
	RunE: runValidate,
}

var validateCheckModules bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckModules, "check-modules", false, "check if configured module URLs are reachable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	// Show config summary
	fmt.Printf("  %s Listen: %s:%d\n", checkMark, cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  %s Dispatch mode: %s (timeout %s)\n", checkMark, cfg.A2A.Mode, cfg.A2A.Timeout)
	fmt.Printf("  %s Modules configured: %d\n", checkMark, len(cfg.Modules))

	names := make([]string, 0, len(cfg.Modules))
	for name := range cfg.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := cfg.Modules[name]
		switch {
		case m.Disabled:
			fmt.Printf("      %s: disabled\n", name)
		case m.URL != "":
			fmt.Printf("      %s: %s\n", name, m.URL)
		case m.Port != 0:
			fmt.Printf("      %s: port %d\n", name, m.Port)
		default:
			fmt.Printf("      %s: defaults\n", name)
		}

		if validateCheckModules && m.URL != "" && !m.Disabled {
			if err := checkModuleReachable(m.URL); err != nil {
				fmt.Printf("      %s %s reachable\n", crossMark, name)
				fmt.Printf("        Error: %v\n", err)
			} else {
				fmt.Printf("      %s %s reachable\n", checkMark, name)
			}
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func checkModuleReachable(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "HEAD", url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
