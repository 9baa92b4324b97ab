package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"kahla/internal"
)

var (
	imageDirFlag  string
	dbDirFlag     string
	recursiveFlag bool
	metaFlag      bool
	dryRunFlag    bool
	yesFlag       bool
	progressFlag  bool
	verboseFlag   bool
	manifestFlag  string
)

// migrateOptions is everything runMigrate needs besides the config.
type migrateOptions struct {
	ImageDir  string
	DBDir     string
	Recursive bool
	DryRun    bool
	Yes       bool
	Progress  bool
	Verbose   bool
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy Picasa tags from a photo folder into the digiKam catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(imageDirFlag)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", imageDirFlag)
		}

		conf, err := internal.LoadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("meta") {
			conf.MetaTags = metaFlag
		}
		if cmd.Flags().Changed("manifest") {
			conf.ManifestFile = manifestFlag
		}

		opts := migrateOptions{
			ImageDir:  imageDirFlag,
			DBDir:     dbDirFlag,
			Recursive: recursiveFlag,
			DryRun:    dryRunFlag,
			Yes:       yesFlag,
			Progress:  progressFlag,
			Verbose:   verboseFlag,
		}
		return runMigrate(opts, conf, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runMigrate(opts migrateOptions, conf *internal.Config, in io.Reader, out io.Writer) error {
	imageDir, err := filepath.Abs(opts.ImageDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", opts.ImageDir, err)
	}
	catalogPath := conf.CatalogFile(opts.DBDir)

	if !opts.Yes {
		ok, err := confirm(in, out, runSettings{
			ImageDir:  imageDir,
			DBDir:     opts.DBDir,
			Catalog:   catalogPath,
			Recursive: opts.Recursive,
			MetaTags:  conf.MetaTags,
			DryRun:    opts.DryRun,
		})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborting.")
			return nil
		}
	}

	logger, err := internal.NewLogger(conf.LogFile, opts.Verbose)
	if err != nil {
		return err
	}
	defer logger.Close()

	catalog, err := internal.OpenCatalog(catalogPath, internal.CatalogOptions{
		DryRun: opts.DryRun,
		Logger: logger.Logger,
	})
	if err != nil {
		fmt.Fprintln(out, "Couldn't establish database connection.")
		fmt.Fprintf(out, "(Most likely, either %s wasn't found in %s or digiKam is currently open and has locked the database.)\n",
			conf.CatalogName, opts.DBDir)
		return err
	}
	defer catalog.Close()
	logger.Info().Str("catalog", catalogPath).Msg("established connection to digiKam database")

	var session *internal.Session
	if conf.ManifestFile != "" {
		session, err = internal.NewSession(conf.ManifestFile, imageDir, catalogPath)
		if err != nil {
			return err
		}
		defer session.Close()
		if err := session.LogRunStart(opts.Recursive, conf.MetaTags, opts.DryRun); err != nil {
			logger.Warn().Err(err).Msg("manifest write failed")
		}
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Migrating folders"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
	}

	m := internal.NewMigrator(catalog, conf, opts.Recursive, logger.Logger)
	m.OnDirectory = func(res internal.DirResult) {
		printSummary(out, res)
		if session != nil {
			if err := session.LogDirectory(res); err != nil {
				logger.Warn().Err(err).Msg("manifest write failed")
			}
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	stats := m.Run(imageDir)
	if bar != nil {
		bar.Finish()
	}
	if session != nil {
		if err := session.LogRunEnd(stats); err != nil {
			logger.Warn().Err(err).Msg("manifest write failed")
		}
	}

	printTotals(out, stats, opts.DryRun)
	if m.Errors.Total > 0 && opts.Verbose {
		fmt.Fprint(out, m.Errors.GenerateReport())
	}
	fmt.Fprintln(out, "All done. Kahla will now close.")
	return nil
}

func printSummary(out io.Writer, res internal.DirResult) {
	switch {
	case res.Status == internal.DirMalformed || res.Status == internal.DirFailed:
		color.New(color.FgRed).Fprintln(out, res.Summary())
	case res.Skipped > 0 || res.Status == internal.DirUnresolved:
		color.New(color.FgYellow).Fprintln(out, res.Summary())
	default:
		fmt.Fprintln(out, res.Summary())
	}
}

func printTotals(out io.Writer, stats internal.RunStats, dryRun bool) {
	verb := "tagged"
	if dryRun {
		verb = "would be tagged"
	}
	color.New(color.FgGreen).Fprintf(out, "%d folders visited, %d items %s, %d skipped.\n",
		stats.Directories, stats.Tagged, verb, stats.Skipped)
	if stats.Unresolved > 0 {
		fmt.Fprintf(out, "%d folders are not in the digiKam catalog.\n", stats.Unresolved)
	}
	if stats.Malformed > 0 {
		fmt.Fprintf(out, "%d sidecar files could not be fully read.\n", stats.Malformed)
	}
	if stats.Tokens > 0 {
		fmt.Fprintf(out, "%d album or face references had no definition.\n", stats.Tokens)
	}
}

func init() {
	migrateCmd.Flags().StringVarP(&imageDirFlag, "images", "i", "", "The directory containing Picasa-tagged images")
	migrateCmd.Flags().StringVarP(&dbDirFlag, "db", "d", "", "The directory containing digiKam's digikam4.db file")
	migrateCmd.Flags().BoolVarP(&recursiveFlag, "recursive", "r", false, "Recursively process folders nested within the image directory")
	migrateCmd.Flags().BoolVar(&metaFlag, "meta", false, "Also tag images with their Picasa albums and faces")
	migrateCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Resolve everything but write nothing to the catalog")
	migrateCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Do not ask for confirmation")
	migrateCmd.Flags().BoolVar(&progressFlag, "progress", false, "Show a spinner while folders are processed")
	migrateCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging and a detailed problem report")
	migrateCmd.Flags().StringVar(&manifestFlag, "manifest", "", "Write a JSONL manifest of the run to this file (empty disables)")
	migrateCmd.MarkFlagRequired("images")
	migrateCmd.MarkFlagRequired("db")

	rootCmd.AddCommand(migrateCmd)
}
