package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"aivideo/services"
	"aivideo/store"
)

var (
	historySearch string
	historyStatus string
	historySort   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and edit generated video history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := services.GalleryQuery{Search: historySearch, Status: historyStatus, Sort: historySort}
		if err := q.Validate(); err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		videos := services.FilterVideos(a.store.State().Videos, q)
		switch formatOutput {
		case "json":
			return printJSON(videos)
		case "yaml":
			data, err := yaml.Marshal(videos)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
		default:
			for _, v := range videos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-10s %s\n  %s\n  %s\n",
					v.CreatedAt.Format("2006-01-02 15:04"), v.ID, v.Status, v.Model, v.Prompt, v.VideoURL)
			}
			if len(videos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No videos")
			}
		}
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count videos by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		stats := services.ComputeStats(a.store.State().Videos)
		if formatOutput == "json" {
			return printJSON(stats)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "total: %d\ncompleted: %d\ngenerating: %d\nfailed: %d\n",
			stats.Total, stats.Completed, stats.Generating, stats.Failed)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <video-id>",
	Short: "Delete one video from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.store.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all videos from history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		n := len(a.store.State().Videos)
		if err := a.store.Dispatch(cmd.Context(), store.ClearVideos{}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d video(s)\n", n)
		return nil
	},
}

func init() {
	historyListCmd.Flags().StringVarP(&historySearch, "query", "q", "", "search prompt and model")
	historyListCmd.Flags().StringVar(&historyStatus, "status", services.StatusAll, "filter by status: all, completed, generating, failed")
	historyListCmd.Flags().StringVar(&historySort, "sort", services.SortNewest, "sort order: newest, oldest, model, status")

	historyCmd.AddCommand(historyListCmd, historyStatsCmd, historyDeleteCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
