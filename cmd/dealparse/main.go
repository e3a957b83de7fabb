// cmd/dealparse/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fundscope/dealparse/internal/config"
	"github.com/fundscope/dealparse/internal/extract"
	"github.com/fundscope/dealparse/internal/fetch"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// main handles CLI arguments and routes to the appropriate command.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "episode":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: episode URL required\n")
			fmt.Fprintf(os.Stderr, "Usage: dealparse episode <url> [--extract=<field>]\n")
			os.Exit(1)
		}
		if err := runEpisode(os.Args[2], os.Args[3:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "memo":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: memo file required (use - for stdin)\n")
			fmt.Fprintf(os.Stderr, "Usage: dealparse memo <file|->\n")
			os.Exit(1)
		}
		if err := runMemo(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: dealparse validate <config.yaml>\n")
			os.Exit(1)
		}
		if err := validateConfig(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version", "--version":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runEpisode fetches the page at the given URL and prints the extraction
// envelope as JSON.
func runEpisode(rawURL string, args []string) error {
	verbose := hasFlag("-v") || hasFlag("--verbose")

	selector := ""
	for _, arg := range args {
		if strings.HasPrefix(arg, "--extract=") {
			selector = strings.TrimPrefix(arg, "--extract=")
		}
	}

	fields, err := extract.ParseFieldSelector(selector)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := fetch.New(fetch.Config{
		Timeout:       cfg.Fetch.Timeout.Std(),
		RetryAttempts: cfg.Fetch.RetryAttempts,
		RetryDelay:    cfg.Fetch.RetryDelay.Std(),
		RateLimit:     cfg.Fetch.RateLimit,
		RateBurst:     cfg.Fetch.RateBurst,
		UserAgents:    cfg.Fetch.UserAgents,
		AllowedHosts:  cfg.Source.AllowedHosts,
	})

	if verbose {
		fmt.Fprintf(os.Stderr, "Fetching %s\n", rawURL)
	}

	markup, err := client.Page(context.Background(), rawURL)
	if err != nil {
		return fmt.Errorf("failed to retrieve page: %w", err)
	}

	svc := extract.NewService()
	result, err := svc.ExtractEpisode(markup, rawURL, fields)
	if result == nil {
		return err
	}

	if verbose && err != nil {
		fmt.Fprintf(os.Stderr, "Extraction incomplete: %v\n", err)
	}

	return printJSON(result)
}

// runMemo reads memo text from a file (or stdin when the argument is "-")
// and prints the parse result as JSON.
func runMemo(path string) error {
	text, err := readMemoInput(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("memo text is empty")
	}

	svc := extract.NewService()
	return printJSON(svc.ParseMemo(text))
}

func readMemoInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read memo file: %w", err)
	}
	return string(data), nil
}

// validateConfig loads and validates a configuration file.
func validateConfig(configFile string) error {
	verbose := hasFlag("-v") || hasFlag("--verbose")

	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose {
		fmt.Printf("Configuration details:\n")
		fmt.Printf("  Server address: %s\n", cfg.Server.Address)
		fmt.Printf("  Allowed hosts: %d\n", len(cfg.Source.AllowedHosts))
		fmt.Printf("  Metrics enabled: %t\n", cfg.Metrics.Enabled)
	}

	fmt.Printf("✓ Configuration file '%s' is valid\n", configFile)
	return nil
}

// loadConfig reads the file named by --config, falling back to defaults.
func loadConfig() (*config.Config, error) {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "--config=") {
			return config.LoadFromFile(strings.TrimPrefix(arg, "--config="))
		}
	}
	return config.Default(), nil
}

func printJSON(payload interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// hasFlag checks if a flag is present in command line arguments.
func hasFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}

// printUsage displays help information.
func printUsage() {
	fmt.Println("dealparse - Deal data extraction tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dealparse episode <url> [--extract=<field>]  Extract episode metadata from a page")
	fmt.Println("  dealparse memo <file|->                      Parse an investment memo")
	fmt.Println("  dealparse validate <config.yaml>             Validate configuration file")
	fmt.Println("  dealparse version                            Show version information")
	fmt.Println("  dealparse help                               Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --extract=<field>                            One of: all, date, title, season, shownotes")
	fmt.Println("  --config=<file>                              Use a configuration file")
	fmt.Println("  -v, --verbose                                Enable verbose output")
}

// printVersion displays version information.
func printVersion() {
	fmt.Printf("dealparse %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
