package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"enrollcam/internal/adapters/prompt"
	dom "enrollcam/internal/services/capture/domain"
	capmod "enrollcam/internal/services/capture/module"
)

func newCaptureCmd(a *app, use string) *cobra.Command {
	strategy := dom.StrategyBurst
	short := "Take a burst of stills and enroll them"
	if use == "record" {
		strategy = dom.StrategyRecording
		short = "Record a short clip, sample it and enroll the frames"
	}
	var interactive bool
	cmd := &cobra.Command{
		Use:   use + " SUBJECT_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var with []capmod.Option
			if interactive {
				with = append(with, capmod.WithPrompter(prompt.Terminal{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}))
			}
			return a.capture(cmd.Context(), cmd.OutOrStdout(), strategy, args[0], with...)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask before capturing when no face detector is available")
	return cmd
}

func (a *app) capture(ctx context.Context, out io.Writer, strategy dom.Strategy, subjectID string, with ...capmod.Option) error {
	m, err := a.module(ctx, with...)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close(context.WithoutCancel(ctx)) }()

	snap, runErr := m.Enroll(ctx, strategy, subjectID)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("enrollment %s: %w", snap.State, runErr)
	}
	return nil
}
