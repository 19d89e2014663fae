package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retailmind/backend/internal/application/upload"
	"github.com/retailmind/backend/internal/domain/analytics"
	"github.com/retailmind/backend/internal/infrastructure/config"
	"github.com/retailmind/backend/internal/infrastructure/dataset"
	"github.com/spf13/cobra"
)

func newOverviewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show dataset KPIs and failure breakdowns",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			overview, err := svc.dashboard.Overview()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, overview)
			}

			kpis := overview.KPIs
			fmt.Fprintf(out, "Conversations:         %d\n", kpis.TotalConversations)
			fmt.Fprintf(out, "Turns:                 %d\n", kpis.TotalTurns)
			fmt.Fprintf(out, "Failure topics:        %d\n", kpis.TopicCount)
			fmt.Fprintf(out, "Mean satisfaction:     %s\n", formatFloat(kpis.MeanSatisfaction, 2))
			fmt.Fprintf(out, "Low satisfaction rate: %s (%d turns)\n", formatPercent(kpis.LowSatisfactionRate), kpis.LowSatTurns)
			fmt.Fprintf(out, "Successful turns:      %d\n", overview.SuccessDistribution.Successful)
			fmt.Fprintf(out, "Failed turns:          %d\n", overview.SuccessDistribution.Failed)

			fmt.Fprintln(out, "\nIssues:")
			for _, kc := range overview.IssueBreakdown {
				fmt.Fprintf(out, "  %-28s %d\n", kc.Key, kc.Count)
			}
			fmt.Fprintln(out, "\nDominant severity by topic:")
			for _, kc := range overview.SeverityDistribution {
				fmt.Fprintf(out, "  %-28s %d\n", kc.Key, kc.Count)
			}
			return nil
		},
	}
}

func newRankTopicsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rank-topics",
		Short: "Rank failure topics by low-satisfaction rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			topics, err := svc.dashboard.RankedTopics()
			if err != nil {
				return err
			}
			if limit > 0 && len(topics) > limit {
				topics = topics[:limit]
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, topics)
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "TOPIC\tLABEL\tLOW SAT RATE\tEXAMPLES")
			for _, t := range topics {
				fmt.Fprintf(tw, "%d\t%s\t%.1f%%\t%d\n", t.TopicID, t.TopicLabel, t.LowSatisfactionRate*100, t.NExamples)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum topics to show (0 = all)")
	return cmd
}

func newSeverityCmd(opts *options) *cobra.Command {
	var topicID int

	cmd := &cobra.Command{
		Use:   "severity",
		Short: "Show failure severity statistics for a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := svc.dashboard.SeverityStats(topicID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, stats)
			}

			fmt.Fprintf(out, "Topic:            %d\n", topicID)
			fmt.Fprintf(out, "Average severity: %s\n", formatFloat(stats.AvgSeverity, 2))
			fmt.Fprintf(out, "Dominant:         %s\n", stats.DominantSeverity)
			for _, kc := range stats.Distribution {
				fmt.Fprintf(out, "  %-8s %d\n", kc.Key, kc.Count)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topicID, "topic", "t", 0, "Topic id (-1 for unclustered turns)")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func newTopConversationsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top-conversations",
		Short: "List the highest-satisfaction conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			convs, err := svc.dashboard.TopConversations(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, convs)
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "CONV\tTOPIC\tMEAN SAT\tSUCCESS\tTURNS\tLOW SAT")
			for _, c := range convs {
				fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.0f%%\t%d\t%d\n",
					c.ConvID, c.TopicLabel, c.MeanSatisfaction, c.SuccessRate*100, c.TurnCount, c.LowSatCount)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of conversations")
	return cmd
}

func newSuccessTopicsCmd(opts *options) *cobra.Command {
	var (
		topN     int
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "success-topics",
		Short: "List topics with the best user satisfaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.dashboard.SuccessTopics(topN, detailed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, result)
			}

			tw := newTable(out)
			if detailed {
				fmt.Fprintln(tw, "TOPIC\tLABEL\tMEAN SAT\tTURNS\tLOW SAT RATE")
				for _, t := range result.Details {
					label := "N/A"
					if t.TopicLabel != nil {
						label = *t.TopicLabel
					}
					fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d\t%.1f%%\n",
						t.TopicID, label, t.MeanSatisfaction, t.SuccessfulTurns, t.LowSatisfactionRate*100)
				}
				return tw.Flush()
			}

			fmt.Fprintln(tw, "TOPIC\tMEAN SAT\tTURNS")
			for _, t := range result.Topics {
				fmt.Fprintf(tw, "%d\t%.2f\t%d\n", t.TopicID, t.MeanSatisfaction, t.SuccessfulTurns)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&topN, "top", "n", 5, "Number of topics")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Include low-satisfaction rate and topic labels")
	return cmd
}

func newPatternsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Explain why the top conversations succeed",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			patterns, err := svc.dashboard.WhyItWorks(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, patterns)
			}
			if len(patterns.Patterns) == 0 {
				fmt.Fprintln(out, "No successful conversations found.")
				return nil
			}

			for i, p := range patterns.Patterns {
				fmt.Fprintf(out, "%d. %s [%s]\n   %s\n", i+1, p.Title, p.Metric, p.Description)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of top conversations to analyse")
	return cmd
}

func newThemeCmd(opts *options) *cobra.Command {
	var (
		convID int
		text   string
	)

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Infer the business theme of a conversation or free text",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !cmd.Flags().Changed("conv") {
				if text == "" {
					return fmt.Errorf("either --conv or --text is required")
				}
				theme := analytics.InferThemeFromText(text, 0)
				if opts.jsonOutput {
					return printJSON(out, map[string]string{"theme": theme})
				}
				fmt.Fprintln(out, theme)
				return nil
			}

			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			conv, err := svc.dashboard.Conversation(convID)
			if err != nil {
				return fmt.Errorf("conversation %d: %w", convID, err)
			}

			if opts.jsonOutput {
				return printJSON(out, map[string]any{"conv_id": conv.ConvID, "theme": conv.Theme})
			}
			fmt.Fprintln(out, conv.Theme)
			return nil
		},
	}
	cmd.Flags().IntVarP(&convID, "conv", "c", 0, "Conversation id")
	cmd.Flags().StringVar(&text, "text", "", "Free text to classify")
	return cmd
}

func newUploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Analyse a conversation file without modifying the dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			ds, err := svc.store.Snapshot()
			if err != nil {
				return err
			}

			result, err := svc.upload.Preview(payload, ds.NextConvID())
			if err != nil {
				return err
			}
			result.Record.Filename = filepath.Base(args[0])

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, result)
			}
			printUploadResult(cmd, result)
			return nil
		},
	}
}

func printUploadResult(cmd *cobra.Command, result *upload.Result) {
	out := cmd.OutOrStdout()
	a := result.Analysis

	fmt.Fprintf(out, "File:          %s\n", result.Record.Filename)
	fmt.Fprintf(out, "Conversation:  %d (next available id)\n", result.Record.ConvID)
	fmt.Fprintf(out, "Satisfaction:  %.1f / 100\n", a.Satisfaction)
	fmt.Fprintf(out, "Resolution:    %s\n", a.Resolution)
	fmt.Fprintf(out, "Effort:        %s\n", a.Effort)
	fmt.Fprintf(out, "Theme:         %s\n", a.Theme)
	fmt.Fprintf(out, "Turns:         %d (%d low satisfaction)\n", a.TurnCount, a.LowSatisfactionTurns)
	fmt.Fprintf(out, "Tokens:        %d\n", a.TokenCount)

	tw := newTable(out)
	fmt.Fprintln(tw, "\nTURN\tSPEAKER\tSCORE\tTOPIC\tTEXT")
	for _, t := range result.Turns {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			t.TurnID, t.Speaker, formatFloat(t.SatisfactionScore, 1), t.TopicLabel, truncate(t.Text, 60))
	}
	_ = tw.Flush()
}

func newSnapshotCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot [output.db]",
		Short: "Write the loaded dataset to a SQLite snapshot",
		Long:  "Write the loaded dataset to a SQLite snapshot. Without an argument the file goes to the snapshots directory under the data root.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			ds, err := svc.store.Snapshot()
			if err != nil {
				return err
			}

			path := config.SnapshotPath(fmt.Sprintf("dataset-v%d.db", ds.Version))
			if len(args) == 1 {
				path = args[0]
			}
			if err := dataset.WriteSnapshot(cmd.Context(), path, ds); err != nil {
				return err
			}

			summary := ds.Summarize()
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, map[string]any{"path": path, "summary": summary})
			}
			fmt.Fprintf(out, "Wrote %s: %d turns, %d topics, %d repairs\n", path, summary.Turns, summary.Topics, summary.Repairs)
			return nil
		},
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
