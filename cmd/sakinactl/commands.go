package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sakina-app/sakina-server/internal/auth"
)

func newRootCmd() *cobra.Command {
	var apiURL, token string
	root := &cobra.Command{
		Use:           "sakinactl",
		Short:         "CLI client for the Sakina wellness API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultToken := os.Getenv("SAKINA_TOKEN")
	if defaultToken == "" {
		defaultToken = auth.LocalDevToken
	}
	root.PersistentFlags().StringVarP(&apiURL, "api", "a", "http://localhost:8000", "Sakina service base URL")
	root.PersistentFlags().StringVarP(&token, "token", "t", defaultToken, "Bearer token (defaults to $SAKINA_TOKEN or the local dev key)")

	client := func() *apiClient { return newAPIClient(apiURL, token) }
	call := func(cmd *cobra.Command, method, path string, query map[string]string, body interface{}) error {
		data, err := client().do(method, path, query, body)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), data)
	}
	simple := func(use, short, method, path string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return call(cmd, method, path, nil, nil)
			},
		}
	}

	root.AddCommand(newJournalCmd(call))

	var statsDays int
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show mood and stress statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, http.MethodGet, "/api/insights/stats", map[string]string{"days": strconv.Itoa(statsDays)}, nil)
		},
	}
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 7, "Period in days (1-30)")
	root.AddCommand(statsCmd)

	var insightDays int
	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "Summarize the stress trend of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, http.MethodPost, "/api/insights/weekly", nil, map[string]int{"days": insightDays})
		},
	}
	insightsCmd.Flags().IntVarP(&insightDays, "days", "d", 7, "Period in days (1-30)")
	root.AddCommand(insightsCmd)

	root.AddCommand(simple("streak", "Show journaling streaks", http.MethodGet, "/api/insights/streak"))
	root.AddCommand(simple("dashboard", "Show the dashboard summary", http.MethodGet, "/api/dashboard/summary"))
	root.AddCommand(simple("profile", "Show the current user's profile", http.MethodGet, "/api/users/profile"))

	nudgeCmd := &cobra.Command{Use: "nudge", Short: "Nudge operations"}
	nudgeCmd.AddCommand(simple("check", "Ask whether a nudge is due", http.MethodPost, "/api/nudge/check"))
	nudgeCmd.AddCommand(simple("status", "Show the last 24 hours of signals", http.MethodGet, "/api/nudge/status"))
	root.AddCommand(nudgeCmd)

	return root
}

type caller func(cmd *cobra.Command, method, path string, query map[string]string, body interface{}) error

func newJournalCmd(call caller) *cobra.Command {
	journalCmd := &cobra.Command{Use: "journal", Short: "Journal entry operations"}

	var content, mood, entryType string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Write a journal entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, http.MethodPost, "/api/journal", nil, map[string]string{
				"content":    content,
				"mood":       mood,
				"entry_type": entryType,
			})
		},
	}
	addCmd.Flags().StringVarP(&content, "content", "c", "", "Entry text (required)")
	addCmd.Flags().StringVarP(&mood, "mood", "m", "", "stressed|anxious|tired|okay|calm|energized (required)")
	addCmd.Flags().StringVar(&entryType, "type", "text", "text|voice")
	_ = addCmd.MarkFlagRequired("content")
	_ = addCmd.MarkFlagRequired("mood")
	journalCmd.AddCommand(addCmd)

	var listMood string
	var skip, limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := map[string]string{"skip": strconv.Itoa(skip), "limit": strconv.Itoa(limit)}
			if listMood != "" {
				q["mood"] = listMood
			}
			return call(cmd, http.MethodGet, "/api/journal", q, nil)
		},
	}
	listCmd.Flags().StringVarP(&listMood, "mood", "m", "", "Filter by mood")
	listCmd.Flags().IntVar(&skip, "skip", 0, "Entries to skip")
	listCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum entries (1-100)")
	journalCmd.AddCommand(listCmd)

	journalCmd.AddCommand(&cobra.Command{
		Use:   "get ENTRY_ID",
		Short: "Show one entry with its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodGet, "/api/journal/"+args[0], nil, nil)
		},
	})
	journalCmd.AddCommand(&cobra.Command{
		Use:   "delete ENTRY_ID",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodDelete, "/api/journal/"+args[0], nil, nil)
		},
	})
	return journalCmd
}
