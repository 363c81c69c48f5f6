package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/what-in-the-nim/bing-image-downloader/pkg/config"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/logger"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/scraper"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/ui"
)

var (
	// Download command flags
	limit        int
	outputDir    string
	adultContent bool
	timeoutSecs  int
	filter       string
	forceReplace bool
	concurrent   int
	rateLimit    int
	metricsAddr  string
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <query>",
	Short: "Download images matching a search query",
	Long: `Download images matching a search query from Bing image search.

Images are saved as Image_1.<ext>, Image_2.<ext> and so on into a
subdirectory named after the query, under the configured output
directory. Downloads that fail or return non-image content are logged
and skipped; the run keeps going until the limit is reached or the
search results run out.`,
	Example: `  # Download 100 images of cats into ./dataset/cats
  bingdl download cats

  # Download 20 photos only, into a custom directory
  bingdl download "red car" --limit 20 --filter photo --output ./images

  # Replace a previous run's directory and allow adult content
  bingdl download sunsets --force --adult

  # Throttle to 30 requests per minute with 4 parallel downloads
  bingdl download mountains --rate-limit 30 --concurrent 4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runDownload(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().IntVarP(&limit, "limit", "l", 100, "number of images to download")
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base output directory (default: ./dataset)")
	downloadCmd.Flags().BoolVar(&adultContent, "adult", false, "allow adult content in results")
	downloadCmd.Flags().IntVar(&timeoutSecs, "timeout", 60, "per-request timeout in seconds")
	downloadCmd.Flags().StringVar(&filter, "filter", "", "result filter (line, photo, clipart, gif, transparent)")
	downloadCmd.Flags().BoolVar(&forceReplace, "force", false, "delete the query's output directory before downloading")
	downloadCmd.Flags().IntVar(&concurrent, "concurrent", 0, "maximum parallel downloads (0 = unlimited)")
	downloadCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute (0 = unlimited)")
	downloadCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090, empty = disabled)")
}

func runDownload(cmd *cobra.Command, args []string) {
	query := strings.TrimSpace(args[0])
	if query == "" {
		ui.PrintError("Query must not be empty")
		os.Exit(1)
	}

	// Build flags map from command line
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if cmd.Flags().Changed("timeout") {
		flags["timeout"] = timeoutSecs
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if cmd.Flags().Changed("adult") {
		flags["adult"] = adultContent
	}
	if filter != "" {
		flags["filter"] = filter
	}
	if cmd.Flags().Changed("force") {
		flags["force"] = forceReplace
	}
	if verbose && logLevel == "info" {
		logLevel = "debug"
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	logger.Initialize(&cfg.Logging)
	logger.WithField("version", version).Info("bingdl starting")

	ui.PrintInfo("Query", query)
	ui.PrintInfo("Limit", strconv.Itoa(limit))

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize downloader", err.Error())
		os.Exit(1)
	}
	s.SetVerbose(verbose)

	var metricsServer *http.Server
	if metricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics().Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
		logger.WithField("addr", metricsAddr).Info("Metrics server enabled")
	}

	count, err := s.Download(query, limit)
	if metricsServer != nil {
		metricsServer.Close()
	}
	if err != nil {
		logger.WithError(err).WithField("query", query).Error("Download failed")
		ui.PrintError("Download failed", err.Error())
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"query":      query,
		"downloaded": count,
	}).Info("Download completed")
}
