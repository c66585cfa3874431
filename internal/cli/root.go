// Package cli implements the filehub command line client. Every command
// loads the collection from the server into a local store, works on the
// store, and forwards mutations back through a syncer.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"filehub/internal/remote"
	"filehub/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("filehub")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "filehub",
		Short: "Filehub storage client",
		Long: `Filehub manages file and folder metadata on a filehub server: import local
files, browse and search the collection, share files and inspect storage usage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "Filehub server URL (FILEHUB_SERVER)")
	rootCmd.PersistentFlags().Duration("timeout", 2*time.Minute, "Overall command timeout (FILEHUB_TIMEOUT)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (FILEHUB_DEBUG)")
	if err := v.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	e := &env{v: v}
	rootCmd.AddCommand(newImportCommand(e))
	rootCmd.AddCommand(newListCommand(e))
	rootCmd.AddCommand(newStatsCommand(e))
	rootCmd.AddCommand(newShareCommand(e))
	rootCmd.AddCommand(newRemoveCommand(e))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env resolves global settings and builds the collaborators commands share.
type env struct {
	v *viper.Viper
}

func (e *env) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if e.v.GetBool("debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (e *env) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), e.v.GetDuration("timeout"))
}

func (e *env) client(logger *slog.Logger) *remote.Client {
	return remote.NewClient(e.v.GetString("server"), remote.WithClientLogger(logger))
}

// session is a store loaded from the server plus the syncer that writes
// back to it. Call close when done.
type session struct {
	client *remote.Client
	store  *store.Store
	syncer *remote.Syncer
	logger *slog.Logger
}

func (e *env) open(ctx context.Context, cmd *cobra.Command) (*session, error) {
	logger := e.logger(cmd)
	client := e.client(logger)

	stats, err := client.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}

	st := store.New(store.WithCapacity(stats.Capacity), store.WithLogger(logger))
	syncer := remote.NewSyncer(client, st, logger)
	if _, err := syncer.Load(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return &session{client: client, store: st, syncer: syncer, logger: logger}, nil
}

func (s *session) close() {
	s.store.Close()
}
