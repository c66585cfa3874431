package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"filehub/internal/analytics"
	"filehub/internal/core"

	"github.com/spf13/cobra"
)

func newStatsCommand(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, e, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analytics snapshot as JSON")
	return cmd
}

func runStats(cmd *cobra.Command, e *env, asJSON bool) error {
	ctx, cancel := e.context(cmd)
	defer cancel()

	s, err := e.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	snap := s.store.State().Snapshot(time.Now())
	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	server, err := s.client.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Used:     %s", core.FormatSize(snap.Used))
	if snap.Capacity > 0 {
		fmt.Fprintf(out, " of %s (%.1f%%), %s free", core.FormatSize(snap.Capacity), snap.UsagePercent, core.FormatSize(snap.Free))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Files:    %d in %d folders, %d shared items\n", snap.Files, snap.Folders, snap.SharedItems)
	fmt.Fprintf(out, "Trash:    %d files\n", server.DeletedFiles)
	fmt.Fprintf(out, "Average:  %s per file\n", core.FormatSize(snap.AvgSize))
	h := snap.Highlights
	if h.Largest != nil {
		fmt.Fprintf(out, "Largest:  %s (%s)\n", h.Largest.Name, core.FormatSize(h.Largest.Size))
	}
	if h.MostDownloaded != nil && h.MostDownloaded.Downloads > 0 {
		fmt.Fprintf(out, "Popular:  %s (%d downloads)\n", h.MostDownloaded.Name, h.MostDownloaded.Downloads)
	}
	if h.MostViewed != nil && h.MostViewed.Views > 0 {
		fmt.Fprintf(out, "Viewed:   %s (%d views)\n", h.MostViewed.Name, h.MostViewed.Views)
	}
	fmt.Fprintf(out, "Recent:   %d uploads in the last %d days\n\n", len(h.RecentUploads), int(analytics.RecentWindow.Hours()/24))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tFILES\tSIZE")
	for _, k := range core.Kinds {
		u, ok := snap.ByKind[k]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", k, u.Files, core.FormatSize(u.Bytes))
	}
	return w.Flush()
}
