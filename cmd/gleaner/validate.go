package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration without touching the network",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var problems []string
			if err := checkOutputDir(cfg.OutputDir); err != nil {
				problems = append(problems, err.Error())
			}
			if err := checkStoreDSN(cfg.Store); err != nil {
				problems = append(problems, err.Error())
			}

			if len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintln(os.Stderr, " -", p)
				}
				return fmt.Errorf("%d problem(s) found", len(problems))
			}

			fmt.Println("Configuration OK")
			fmt.Printf("  language=%s country=%s site=%s\n", cfg.Language, cfg.Country, cfg.Site)
			fmt.Printf("  max_depth=%d max_per_seed=%d min_relevance=%d\n", cfg.MaxDepth, cfg.MaxPerSeed, cfg.MinRelevance)
			fmt.Printf("  output_dir=%s format=%s\n", cfg.OutputDir, cfg.Format)
			if cfg.Store != "" {
				fmt.Printf("  store=%s\n", cfg.Store)
			}
			return nil
		},
	}
}

// checkOutputDir verifies the output directory exists or can be created
// by probing the nearest existing ancestor for writability.
func checkOutputDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output_dir is empty")
	}
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output_dir %q exists but is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("output_dir %q: %w", dir, err)
	}

	parent := filepath.Dir(dir)
	for parent != "." && parent != string(filepath.Separator) {
		if _, err := os.Stat(parent); err == nil {
			return nil
		}
		parent = filepath.Dir(parent)
	}
	return nil
}

// checkStoreDSN validates the DSN shape without opening a connection.
func checkStoreDSN(dsn string) error {
	switch {
	case dsn == "":
		return nil
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		if path == "" {
			return fmt.Errorf("sqlite store DSN has no path")
		}
		return nil
	case strings.HasPrefix(dsn, "postgres:"), strings.HasPrefix(dsn, "postgresql:"):
		u, err := url.Parse(dsn)
		if err != nil {
			return fmt.Errorf("postgres store DSN is not a valid URL: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("postgres store DSN has no host")
		}
		return nil
	default:
		return fmt.Errorf("unsupported store DSN %q", dsn)
	}
}
