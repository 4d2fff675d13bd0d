package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"subfetch/internal/fetcher"
	"subfetch/internal/media"
	"subfetch/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	flags := &fetchFlags{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Fetch subtitles for a directory, then keep watching it for new videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, ctx, flags, debounce)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a new file is processed")
	return cmd
}

func runWatch(cmd *cobra.Command, ctx *commandContext, flags *fetchFlags, debounce time.Duration) error {
	root, err := flags.root()
	if err != nil {
		return err
	}
	s, err := openSession(cmd, ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()

	files, err := s.list(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	var mu sync.Mutex

	return s.runner.WithSession(cmd.Context(), s.username, s.password, func(runCtx context.Context) error {
		summary, err := s.runner.Run(runCtx, files)
		fmt.Fprint(out, renderSummary(summary, colorize))
		if err != nil {
			return err
		}

		w := watch.New(root, s.lister, func(handleCtx context.Context, file media.File) {
			outcome := s.runner.Process(handleCtx, file)
			if outcome.Status == fetcher.StatusSkippable || outcome.Status == fetcher.StatusUnrecognized {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "%s %s %s\n",
				paint(string(outcome.Status), statusColor(outcome.Status), colorize),
				file.Path,
				outcomeDetail(outcome),
			)
		}, watch.WithDebounce(debounce), watch.WithLogger(s.logger))

		return w.Run(runCtx)
	})
}
