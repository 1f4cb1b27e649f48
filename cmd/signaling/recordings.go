package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mossy-p/webrtc-recorder/config"
	"github.com/mossy-p/webrtc-recorder/internal/catalog"
	"github.com/mossy-p/webrtc-recorder/internal/models"
	"github.com/mossy-p/webrtc-recorder/internal/recording"
)

var (
	flagLimit  int
	flagOffset int
)

var recordingsCmd = &cobra.Command{
	Use:     "recordings",
	Aliases: []string{"rec"},
	Short:   "Inspect and manage the recording catalog",
}

var recordingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded calls, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(cat *catalog.Catalog, _ *config.Config) error {
			recs, err := cat.ListCallRecordings(cmd.Context(), flagLimit, flagOffset)
			if err != nil {
				return err
			}
			renderRecordings(cmd.OutOrStdout(), recs)
			return nil
		})
	},
}

var recordingsShowCmd = &cobra.Command{
	Use:   "show <callId>",
	Short: "Show the files registered for a call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(cat *catalog.Catalog, _ *config.Config) error {
			rec, err := cat.GetCallRecording(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("recording %q: %w", args[0], err)
			}
			renderRecordingFiles(cmd.OutOrStdout(), rec)
			return nil
		})
	},
}

var recordingsDeleteCmd = &cobra.Command{
	Use:   "delete <callId>",
	Short: "Remove a call and its file entries from the catalog",
	Long: `Remove a call and its file entries from the catalog.

Media files on disk are left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(cat *catalog.Catalog, _ *config.Config) error {
			if err := cat.DeleteCallRecording(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("recording %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted recording %s\n", args[0])
			return nil
		})
	},
}

var recordingsFinalizeCmd = &cobra.Command{
	Use:   "finalize <callId>",
	Short: "Register a call's media files in the catalog",
	Long: `Scan MEDIA_ROOT for the call's media files and register any the catalog
does not know about yet. Safe to run repeatedly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(cat *catalog.Catalog, cfg *config.Config) error {
			store := recording.NewStore(cfg.Recording.MediaRoot)
			res, err := recording.NewFinalizer(store, cat, slog.Default()).Finalize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Found %d file(s), registered %d new\n", res.Discovered, res.Registered)
			renderRecordingFiles(cmd.OutOrStdout(), res.Recording)
			return nil
		})
	},
}

func init() {
	recordingsListCmd.Flags().IntVarP(&flagLimit, "limit", "n", 50, "maximum number of recordings to list")
	recordingsListCmd.Flags().IntVar(&flagOffset, "offset", 0, "number of recordings to skip")

	recordingsCmd.AddCommand(recordingsListCmd, recordingsShowCmd, recordingsDeleteCmd, recordingsFinalizeCmd)
}

func withCatalog(fn func(*catalog.Catalog, *config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout is reserved for tables
	logger, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cat, err := catalog.Open(cfg.Recording.DatabaseDSN, catalog.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	return fn(cat, cfg)
}

func renderRecordings(w io.Writer, recs []models.CallRecording) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Call ID", "Recorded", "Files"})
	for _, r := range recs {
		t.AppendRow(table.Row{r.CallID, r.Timestamp.Local().Format(time.DateTime), len(r.Files)})
	}
	t.AppendFooter(table.Row{"", "Total", strconv.Itoa(len(recs))})
	t.Render()
}

func renderRecordingFiles(w io.Writer, rec *models.CallRecording) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("%s (%s)", rec.CallID, rec.Timestamp.Local().Format(time.DateTime))
	t.AppendHeader(table.Row{"#", "Type", "Path"})
	for i, f := range rec.Files {
		t.AppendRow(table.Row{i + 1, f.FileType, f.FilePath})
	}
	if len(rec.Files) == 0 {
		t.AppendRow(table.Row{"-", "-", "no media recorded"})
	}
	t.Render()
}
