package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gauthierbraillon/geofeed/internal/aggregator"
	"github.com/gauthierbraillon/geofeed/internal/display"
	"github.com/gauthierbraillon/geofeed/internal/geocode"
	"github.com/gauthierbraillon/geofeed/internal/metrics"
	"github.com/gauthierbraillon/geofeed/internal/overlay"
	"github.com/gauthierbraillon/geofeed/internal/platform"
	"github.com/gauthierbraillon/geofeed/internal/session"
	"github.com/gauthierbraillon/geofeed/internal/stream"
)

// defaultRadius is the search circle drawn when --radius is not given.
const defaultRadius = 1000

type searchOptions struct {
	limit      int
	platforms  []string
	hidden     []string
	located    bool
	query      string
	radius     float64
	geojsonOut string
	asJSON     bool
}

// newSearchCmd creates the search subcommand.
func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <session-id>",
		Short: "Stream the results of a search session",
		Long: "Connect to the event stream of a search session, merge every platform's results " +
			"as they arrive and print the deduplicated feed when the search completes.",
		Args: requireArg("session id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 50, "Maximum number of posts to display")
	cmd.Flags().StringSliceVarP(&opts.platforms, "platform", "p", nil, "Only show these platforms")
	cmd.Flags().StringSliceVar(&opts.hidden, "hide", nil, "Hide these platforms")
	cmd.Flags().BoolVar(&opts.located, "located", false, "Only show posts that can be placed on the map")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Search location as \"lat,lng\"; reverse geocoded while streaming")
	cmd.Flags().Float64Var(&opts.radius, "radius", defaultRadius, "Search radius in meters around --query")
	cmd.Flags().StringVar(&opts.geojsonOut, "geojson", "", "Write the map overlay (posts, search point, radius) to this GeoJSON file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the aggregated results as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, sessionID string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	token, err := apiToken(cfg)
	if err != nil {
		return err
	}

	filter := make([]platform.Platform, 0, len(opts.platforms))
	for _, tag := range opts.platforms {
		p, err := parsePlatform(tag)
		if err != nil {
			return err
		}
		filter = append(filter, p)
	}

	var center *geocode.Coordinates
	if opts.query != "" {
		c, ok := geocode.MatchCoordinates(opts.query)
		if !ok {
			return fmt.Errorf("invalid query %q: expected \"lat,lng\" or \"Lat: x Lng: y\"", opts.query)
		}
		center = &c
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout := cfg.Stream.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	collector := metrics.New(prometheus.NewRegistry())
	sess := session.New(sessionID, session.WithMetrics(collector))
	// An interrupt or timeout ends the session at once, so a lookup still
	// in flight is discarded rather than applied.
	stopClosing := context.AfterFunc(ctx, sess.Close)
	defer stopClosing()
	for _, tag := range opts.hidden {
		p, err := parsePlatform(tag)
		if err != nil {
			return err
		}
		sess.SetVisibility(p, false)
	}

	client := stream.NewClient(cfg.API.BaseURL, stream.WithAuthorization(token.Header()))
	ingestor := stream.NewIngestor(client, sessionID, sess, stream.WithMetrics(collector))

	g, gctx := errgroup.WithContext(ctx)
	ingestDone := make(chan struct{})

	var runErr error
	g.Go(func() error {
		defer close(ingestDone)
		runErr = ingestor.Run(gctx)
		return nil
	})

	if addr := cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			zap.L().Info("metrics: listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "metrics: serve")
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-ingestDone:
			case <-gctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	var places []geocode.Feature
	if center != nil {
		resolver := newResolver(cfg, collector)
		generation := sess.Token()
		g.Go(func() error {
			resolvePlaces(gctx, sess, generation, resolver, opts.query, collector, &places)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		ingestor.Close() //nolint:errcheck
		sess.Close()
		return err
	}

	status, searchErr := sess.Status(), sess.Err()
	if err := printResults(cmd, sess, places, opts, filter); err != nil {
		return err
	}

	if opts.geojsonOut != "" {
		if err := writeOverlay(opts.geojsonOut, sess, center, opts.radius); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Map overlay written to: %s\n", opts.geojsonOut)
	}

	sess.Close()

	switch {
	case status == session.StatusErrored:
		return eris.Wrap(searchErr, "search failed")
	case errors.Is(runErr, context.DeadlineExceeded):
		fmt.Fprintln(cmd.ErrOrStderr(), "Search timed out; showing partial results.")
	case errors.Is(runErr, context.Canceled):
		fmt.Fprintln(cmd.ErrOrStderr(), "Search interrupted; showing partial results.")
	}
	return nil
}

// resolvePlaces looks query up and stores the places in dst, unless the
// session was closed or reset while the lookup ran.
func resolvePlaces(ctx context.Context, sess *session.State, generation string, resolver *geocode.Resolver, query string, collector *metrics.Collector, dst *[]geocode.Feature) bool {
	found := resolver.Resolve(ctx, query)
	if sess.Apply(generation, func() { *dst = found }) {
		return true
	}
	zap.L().Debug("geocode: discarding places for an ended search", zap.String("session_id", sess.ID()))
	collector.GeocodeLookup(metrics.GeocodeDiscarded)
	return false
}

func printResults(cmd *cobra.Command, sess *session.State, places []geocode.Feature, opts searchOptions, filter []platform.Platform) error {
	out := cmd.OutOrStdout()

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			SessionID      string                                `json:"session_id"`
			Status         session.Status                        `json:"status"`
			Results        aggregator.State                      `json:"results"`
			PlatformErrors map[platform.Platform]json.RawMessage `json:"platform_errors,omitempty"`
			Places         []geocode.Feature                     `json:"places,omitempty"`
		}{
			SessionID:      sess.ID(),
			Status:         sess.Status(),
			Results:        sess.Snapshot(),
			PlatformErrors: sess.PlatformErrors(),
			Places:         places,
		})
	}

	formatter := display.NewTerminalFormatter()
	fmt.Fprint(out, formatter.FormatSummary(sess.Snapshot()))
	fmt.Fprint(out, formatter.FormatPlatformErrors(sess.PlatformErrors()))
	if opts.query != "" {
		fmt.Fprintf(out, "\nNear %s:\n", opts.query)
		fmt.Fprint(out, formatter.FormatFeatures(places))
	}
	fmt.Fprintln(out)

	feed := sess.Aggregator().Feed(aggregator.FeedOptions{
		Limit:       opts.limit,
		Platforms:   filter,
		Visible:     sess.Visibility,
		LocatedOnly: opts.located,
	})
	fmt.Fprint(out, formatter.FormatFeed(feed))
	return nil
}

// writeOverlay draws the session on a headless map and saves it as GeoJSON.
// The overlay is torn down afterwards, as when a search is left.
func writeOverlay(path string, sess *session.State, center *geocode.Coordinates, radius float64) error {
	m := overlay.NewMemoryMap()
	ctrl := overlay.NewController(m, overlay.WithResultsClearer(sess))
	defer ctrl.Reset(nil)

	if err := ctrl.ShowPosts(sess.Aggregator().Feed(aggregator.FeedOptions{
		Visible:     sess.Visibility,
		LocatedOnly: true,
	})); err != nil {
		return err
	}
	if center != nil {
		at := overlay.LngLat{Lng: center.Lng, Lat: center.Lat}
		if err := ctrl.AddPulsingLayer(at); err != nil {
			return err
		}
		if radius > 0 {
			if err := ctrl.SetCircleRadius(at, radius); err != nil {
				return err
			}
		}
	}

	data, err := m.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil { // #nosec G306 -- exported map data is not secret
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}
