package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lkmbench/lkmbench/pkg/store"
)

var flagSessionsLimit int

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored training sessions",
		RunE:  runSessions,
	}
	cmd.Flags().IntVar(&flagSessionsLimit, "limit", 20, "maximum sessions to list")
	return cmd
}

func runSessions(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	s, err := store.Open(a.cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := s.ListSessions(flagSessionsLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No training sessions recorded.")
		return nil
	}

	fmt.Printf("%-5s %-24s %-24s %-6s %-12s %-6s %s\n",
		"ID", "Model", "Test", "Iters", "Improvement", "Best", "Created")
	for _, info := range sessions {
		fmt.Printf("%-5d %-24s %-24s %-6d %+-12.3f %-6d %s\n",
			info.ID, info.Model, info.TestType, info.Iterations,
			info.Improvement, info.BestIteration,
			info.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
