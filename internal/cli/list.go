package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"filehub/internal/core"
	"filehub/internal/query"
	"filehub/internal/store"

	"github.com/spf13/cobra"
)

type listOptions struct {
	search string
	filter string
	folder string
	sort   string
	asc    bool
}

func newListCommand(e *env) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List files",
		Long: `List files matching a search, kind filter and folder, sorted by name, date,
size, type, downloads or views.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, e, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.search, "search", "s", "", "Match name or tag, case-insensitive")
	f.StringVarP(&opts.filter, "filter", "f", string(core.FilterAll), "all, starred or a kind (image, video, audio, document, archive, other)")
	f.StringVar(&opts.folder, "folder", "", "Only files directly in this folder")
	f.StringVar(&opts.sort, "sort", string(core.DefaultSortKey), "Sort key: name, date, size, type, downloads or views")
	f.BoolVar(&opts.asc, "asc", false, "Sort ascending")
	return cmd
}

func runList(cmd *cobra.Command, e *env, opts listOptions) error {
	if _, err := core.ParseFilter(opts.filter); err != nil {
		return err
	}
	dir := core.Descending
	if opts.asc {
		dir = core.Ascending
	}
	key, dir, err := core.ParseSort(opts.sort, string(dir))
	if err != nil {
		return err
	}

	ctx, cancel := e.context(cmd)
	defer cancel()

	s, err := e.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var st store.State
	for _, a := range []store.Action{
		store.SetSearchQuery{Query: opts.search},
		store.SetFilter{Filter: core.Filter(opts.filter)},
		store.SetFolder{Path: opts.folder},
		store.SetSort{Key: key, Direction: dir},
	} {
		if st, err = s.store.Dispatch(ctx, a); err != nil {
			return err
		}
	}

	if opts.folder != "" {
		crumbs := query.Breadcrumbs(opts.folder)
		names := make([]string, len(crumbs))
		for i, c := range crumbs {
			names[i] = c.Name
		}
		fmt.Fprintf(cmd.OutOrStdout(), "In %s\n\n", strings.Join(names, " > "))
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tSIZE\tMODIFIED\tPATH\tFLAGS")
	visible := st.Visible()
	for _, f := range visible {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(f.ID),
			f.Name,
			f.Kind,
			core.FormatSize(f.Size),
			f.ModifiedAt.Local().Format("2006-01-02 15:04"),
			f.Path,
			flags(f),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d files\n", len(visible), st.Len())
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func flags(f core.File) string {
	out := ""
	if f.Starred {
		out += "★"
	}
	if f.Shared {
		out += "⇪" + string(f.Access)
	}
	return out
}
