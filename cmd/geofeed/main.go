// Package main provides the geofeed CLI entry point.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/geofeed/internal/config"
	"github.com/gauthierbraillon/geofeed/internal/display"
	"github.com/gauthierbraillon/geofeed/internal/geocode"
	"github.com/gauthierbraillon/geofeed/internal/metrics"
	"github.com/gauthierbraillon/geofeed/internal/platform"
	"github.com/gauthierbraillon/geofeed/pkg/browser"
	"github.com/gauthierbraillon/geofeed/pkg/tokenstore"
)

var version = "dev"

// tokenName is the file the API token is stored under in the config dir.
const tokenName = "api"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads settings and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apiToken returns the configured token, falling back to the one saved by
// 'geofeed login'.
func apiToken(cfg *config.Config) (*tokenstore.Token, error) {
	if cfg.API.Token != "" {
		return &tokenstore.Token{AccessToken: cfg.API.Token, TokenType: "Bearer"}, nil
	}
	token, err := tokenstore.New(cfg.ConfigDir).Load(tokenName)
	if err != nil {
		if errors.Is(err, tokenstore.ErrTokenNotFound) {
			return nil, eris.New("not authenticated (run 'geofeed login --token <token>' or set GEOFEED_API_TOKEN)")
		}
		return nil, err
	}
	return token, nil
}

// requireArg fails with a message naming the missing argument.
func requireArg(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("requires exactly one %s argument", name)
		}
		return nil
	}
}

// parsePlatform resolves a platform tag with a helpful error.
func parsePlatform(tag string) (platform.Platform, error) {
	p, ok := platform.Parse(tag)
	if ok {
		return p, nil
	}
	tags := make([]string, 0, len(platform.All()))
	for _, p := range platform.All() {
		tags = append(tags, p.String())
	}
	return "", fmt.Errorf("invalid platform %q: must be one of %s", tag, strings.Join(tags, ", "))
}

// newRootCmd creates the root command for geofeed CLI.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "geofeed",
		Short:   "Stream geolocated social search results",
		Long:    "Geofeed streams multi-platform search results for a location and merges them into one deduplicated feed.",
		Version: resolveVersion(version, readBuildInfo()),
	}

	rootCmd.SetVersionTemplate("geofeed version {{.Version}}\n")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newGeocodeCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// newNormalizeCmd creates the normalize subcommand.
func newNormalizeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "normalize <platform> <file>",
		Short: "Normalize a raw platform payload",
		Long:  "Convert a raw platform payload (a file, or - for stdin) into uniform posts.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("requires a platform and a file argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePlatform(args[0])
			if err != nil {
				return err
			}

			raw, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			batch := platform.Normalize(raw, p)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(batch)
			}

			if batch.Unsupported {
				fmt.Fprintf(cmd.OutOrStdout(), "Unsupported %s result type %q.\n", p, batch.SubType)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s posts\n\n", batch.Count, p)
			fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatFeed(batch.Posts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the normalized batch as JSON")

	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, eris.Wrap(err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is provided by the user
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// newGeocodeCmd creates the geocode subcommand.
func newGeocodeCmd() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "geocode <text>",
		Short: "Reverse geocode a coordinate query",
		Long:  "Look up the places at a \"lat,lng\" or \"Lat: x Lng: y\" query.",
		Args:  requireArg("query"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if _, ok := geocode.MatchCoordinates(args[0]); !ok {
				return fmt.Errorf("invalid query %q: expected \"lat,lng\" or \"Lat: x Lng: y\"", args[0])
			}

			resolver := newResolver(cfg, nil)
			features := resolver.Resolve(cmd.Context(), args[0])
			fmt.Fprint(cmd.OutOrStdout(), display.NewTerminalFormatter().FormatFeatures(features))

			if open && len(features) > 0 {
				if c, ok := features[0].Coordinates(); ok {
					link := browser.MapURL(c.Lat, c.Lng)
					if err := browser.Open(link); err != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Please visit:\n%s\n", link)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the best match on a web map")

	return cmd
}

func newResolver(cfg *config.Config, collector *metrics.Collector) *geocode.Resolver {
	client := geocode.NewClient(cfg.Geocode.AccessToken,
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
	)
	return geocode.NewResolver(client, geocode.WithMetrics(collector))
}

// newLoginCmd creates the login subcommand.
func newLoginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the search API token",
		Long:  "Store the bearer token used to open search streams. Without --token it is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return eris.Wrap(err, "read token")
				}
				token = line
			}

			if err := tokenstore.New(cfg.ConfigDir).Save(tokenName, token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to: %s\n", cfg.ConfigDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "API bearer token")

	return cmd
}

// newLogoutCmd creates the logout subcommand.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved search API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := tokenstore.New(cfg.ConfigDir).Delete(tokenName); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// newConfigCmd creates the config subcommand.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		Long:  "View the effective geofeed configuration. Secrets are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", cfg.ConfigDir)
			fmt.Fprintf(out, "API base URL:     %s\n", cfg.API.BaseURL)
			fmt.Fprintf(out, "API token:        %s\n", mask(cfg.API.Token))
			fmt.Fprintf(out, "Geocode base URL: %s\n", cfg.Geocode.BaseURL)
			fmt.Fprintf(out, "Geocode token:    %s\n", mask(cfg.Geocode.AccessToken))
			fmt.Fprintf(out, "Geocode rate:     %g/s\n", cfg.Geocode.RateLimit)
			fmt.Fprintf(out, "Metrics address:  %s\n", orNone(cfg.Metrics.Addr))
			return nil
		},
	}

	return cmd
}

func mask(secret string) string {
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= 4:
		return "****"
	default:
		return secret[:4] + strings.Repeat("*", len(secret)-4)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}
