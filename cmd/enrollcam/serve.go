package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"enrollcam/internal/modkit"
	"enrollcam/internal/modkit/httpkit"
	phttp "enrollcam/internal/platform/net/http"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the capture control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides CONTROL_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	c := a.cfg.Prefix("CONTROL_")
	if addr == "" {
		addr = c.MayString("ADDR", ":4000")
	}

	m, err := a.module(ctx)
	if err != nil {
		return err
	}
	mods := []modkit.Module{m}

	srv := phttp.NewServer(addr)
	r := srv.Router()
	r.Use(httpkit.CommonStack(httpkit.StackOptions{
		AllowedOrigins: splitCSV(c.MayString("ALLOWED_ORIGINS", "")),
		Timeout:        c.MayDuration("TIMEOUT", 30*time.Second),
	})...)
	httpkit.MountAPIV1(r, httpkit.Protected(c.MayString("TOKEN", "")), func(v1 httpkit.Router) {
		for _, mod := range mods {
			mod.MountRoutes(v1)
			a.log.Info().Str("module", mod.Name()).Msg("mounted")
		}
	})

	runErr := srv.Run(ctx)

	shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	for _, mod := range mods {
		if err := mod.Close(shutdown); err != nil {
			a.log.Warn().Err(err).Str("module", mod.Name()).Msg("module close failed")
		}
	}
	return runErr
}

func splitCSV(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
