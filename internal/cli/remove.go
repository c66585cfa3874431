package cli

import (
	"fmt"
	"strings"

	"filehub/internal/store"

	"github.com/spf13/cobra"
)

func newRemoveCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"delete"},
		Short:   "Move files to the trash",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, e, args)
		},
	}
}

func runRemove(cmd *cobra.Command, e *env, args []string) error {
	ctx, cancel := e.context(cmd)
	defer cancel()

	s, err := e.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	st := s.store.State()
	for _, arg := range args {
		id, err := resolveID(st, arg)
		if err != nil {
			return err
		}
		if st.IsSelected(id) {
			continue
		}
		if st, err = s.store.Dispatch(ctx, store.ToggleSelection{ID: id}); err != nil {
			return err
		}
	}

	names := make([]string, 0, st.SelectedCount())
	for _, id := range st.Selection() {
		f, _ := st.File(id)
		names = append(names, f.Name)
	}

	if _, err := s.syncer.Apply(ctx, store.DeleteSelected{}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d files: %s\n", len(names), strings.Join(names, ", "))
	return nil
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(st store.State, arg string) (string, error) {
	if _, ok := st.File(arg); ok {
		return arg, nil
	}
	var match string
	for _, f := range st.Files() {
		if !strings.HasPrefix(f.ID, arg) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("id prefix %q is ambiguous", arg)
		}
		match = f.ID
	}
	if match == "" {
		return "", fmt.Errorf("no file with id %q", arg)
	}
	return match, nil
}
