package cli

import (
	"fmt"
	"slices"

	"filehub/internal/core"
	"filehub/internal/ingest"

	"github.com/spf13/cobra"
)

func newImportCommand(e *env) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "import PATH...",
		Short: "Import local files and directories",
		Long: `Import records the metadata of every regular file under the given paths on
the server. Directory structure is kept as folder paths; several arguments are
grouped under a generated upload_<timestamp> folder.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, e, args, workers)
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of files read concurrently")
	return cmd
}

func runImport(cmd *cobra.Command, e *env, args []string, workers int) error {
	paths, err := ingest.ParseArgs(args)
	if err != nil {
		return err
	}
	tree, err := ingest.BuildFiletree(paths)
	if err != nil {
		return fmt.Errorf("failed to scan %v: %w", args, err)
	}

	ctx, cancel := e.context(cmd)
	defer cancel()

	s, err := e.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	im := ingest.NewImporter(s.syncer, ingest.WithWorkers(workers), ingest.WithImportLogger(s.logger))
	report, err := im.Import(ctx, tree)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Imported {
		fmt.Fprintf(out, "✓ %s/%s (%s)\n", trimRoot(f.Path), f.Name, core.FormatSize(f.Size))
	}

	failed := make([]string, 0, len(report.Failed))
	for path := range report.Failed {
		failed = append(failed, path)
	}
	slices.Sort(failed)
	for _, path := range failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", path, report.Failed[path])
	}

	a := s.store.State().Analytics()
	fmt.Fprintf(out, "\n%d imported, %d failed. Using %s", len(report.Imported), len(failed), core.FormatSize(a.Used))
	if a.Capacity > 0 {
		fmt.Fprintf(out, " of %s (%.1f%%)", core.FormatSize(a.Capacity), a.UsagePercent())
	}
	fmt.Fprintln(out)

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed to import", len(failed), len(failed)+len(report.Imported))
	}
	return nil
}

func trimRoot(p string) string {
	if p == "/" {
		return ""
	}
	return p
}
