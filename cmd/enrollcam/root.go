package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"enrollcam/internal/modkit"
	"enrollcam/internal/platform/config"
	"enrollcam/internal/platform/logger"
	"enrollcam/internal/platform/store"
	capmod "enrollcam/internal/services/capture/module"
)

// Version is stamped at build time
var Version = "dev"

// app is the state shared by subcommands for one invocation
type app struct {
	cfg   config.Conf
	log   *logger.Logger
	store *store.Store

	manifest string
	enroll   string
	nostore  bool
}

// newRootCmd builds the command tree; the caller closes the returned app
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "enrollcam",
		Short:         "Capture face enrollment frames and submit them",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.manifest, "manifest", "", "replay device manifest (overrides CAPTURE_DEVICE_MANIFEST)")
	root.PersistentFlags().StringVar(&a.enroll, "enroll-url", "", "enrollment API base URL (overrides ENROLL_BASE_URL)")
	root.PersistentFlags().BoolVar(&a.nostore, "no-store", false, "skip the ledger and template cache stores")

	root.AddCommand(newServeCmd(a), newCaptureCmd(a, "burst"), newCaptureCmd(a, "record"))
	return root, a
}

func (a *app) open(ctx context.Context) error {
	logger.Init(logger.FromEnv())
	a.cfg = config.New()
	a.log = logger.Named("cli")

	if a.nostore {
		return nil
	}
	st, err := store.Open(ctx, store.ConfigFromEnv(a.cfg, "enrollcam"), store.WithLogger(*a.log))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := st.Guard(ctx); err != nil {
		_ = st.Close(ctx)
		return fmt.Errorf("store not ready: %w", err)
	}
	a.store = st
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	st := a.store
	a.store = nil
	return st.Close(ctx)
}

// module builds the capture module with flag overrides applied
func (a *app) module(ctx context.Context, with ...capmod.Option) (*capmod.Module, error) {
	deps := modkit.FromStore(*a.log, a.cfg, a.store)
	return capmod.New(ctx, deps, capmod.Options{
		DeviceManifest: a.manifest,
		EnrollBaseURL:  a.enroll,
	}, with...)
}
