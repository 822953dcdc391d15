package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"carvelens/internal/config"
	"carvelens/internal/store"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and maintain the session database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(ctx, cmd, false)
		},
	}

	var jsonOutput bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List processing sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(ctx, cmd, jsonOutput)
		},
	}
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit sessions as JSON")

	dropCmd := &cobra.Command{
		Use:   "drop <session-id>",
		Short: "Delete a session and all of its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				// The store treats an absent session as a successful drop;
				// the command still tells the operator when the id is wrong.
				if _, err := st.GetSession(cmd.Context(), sessionID); err != nil {
					return err
				}
				if err := st.DropSession(cmd.Context(), sessionID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dropped session %s\n", sessionID)
				return nil
			})
		},
	}

	sessionsCmd.AddCommand(listCmd)
	sessionsCmd.AddCommand(dropCmd)
	return sessionsCmd
}

type sessionView struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ImageName string `json:"image_name"`
	Files     int    `json:"reported_file_total"`
	CreatedAt string `json:"created_at"`
	Error     string `json:"error,omitempty"`
}

func runSessionsList(ctx *commandContext, cmd *cobra.Command, jsonOutput bool) error {
	return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
		sessions, err := st.ListSessions(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			views := make([]sessionView, 0, len(sessions))
			for _, session := range sessions {
				views = append(views, sessionView{
					ID:        session.ID,
					Status:    string(session.Status),
					ImageName: session.Summary.ImageName,
					Files:     session.Summary.ReportedFileTotal,
					CreatedAt: formatTimestamp(session.CreatedAt),
					Error:     session.ErrorMessage,
				})
			}
			return writeJSON(cmd, views)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded")
			return nil
		}

		rows := make([][]string, 0, len(sessions))
		for _, session := range sessions {
			rows = append(rows, []string{
				session.ID,
				string(session.Status),
				session.Summary.ImageName,
				fmt.Sprintf("%d", session.Summary.ReportedFileTotal),
				formatTimestamp(session.CreatedAt),
			})
		}
		fmt.Fprintln(out, renderTable([]column{
			{title: "Session"},
			{title: "Status"},
			{title: "Image"},
			{title: "Files", numeric: true},
			{title: "Created"},
		}, rows))
		return nil
	})
}
