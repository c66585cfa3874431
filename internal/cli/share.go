package cli

import (
	"fmt"

	"filehub/internal/core"
	"filehub/internal/store"

	"github.com/spf13/cobra"
)

func newShareCommand(e *env) *cobra.Command {
	var access, password string

	cmd := &cobra.Command{
		Use:   "share ID",
		Short: "Change who can access a file",
		Long: `Share sets the access level of a file: private, view, edit or public. A
password protects shared access. IDs may be abbreviated to any unique prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := core.ParseAccessLevel(access)
			if err != nil {
				return err
			}
			return runShare(cmd, e, args[0], level, password)
		},
	}

	cmd.Flags().StringVarP(&access, "access", "a", string(core.AccessView), "Access level")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Require this password for shared access")
	return cmd
}

func runShare(cmd *cobra.Command, e *env, arg string, access core.AccessLevel, password string) error {
	ctx, cancel := e.context(cmd)
	defer cancel()

	s, err := e.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	id, err := resolveID(s.store.State(), arg)
	if err != nil {
		return err
	}

	if password == "" {
		if _, err := s.syncer.Apply(ctx, store.ShareFile{ID: id, Access: access}); err != nil {
			return err
		}
	} else if _, err := s.client.Share(ctx, id, access, password); err != nil {
		return err
	}

	f, _ := s.store.State().File(id)
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", f.Name, access)
	return nil
}
