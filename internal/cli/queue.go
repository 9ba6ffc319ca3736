package cli

import (
	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Matchmaking queue commands",
	}

	cmd.AddCommand(newQueueJoinCmd())
	cmd.AddCommand(newQueueLeaveCmd())
	cmd.AddCommand(newQueueStatusCmd())

	return cmd
}

func newQueueJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join the matchmaking queue",
		Long: `Join the matchmaking queue.

When enough players are queued a room is created automatically and a
match_found event is sent on the queue event stream. Run
"mafiactl events queue" in another terminal to be told where to go.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"username": name}
			var result QueueStatus

			if err := client.Post("/api/v1/matchmaking/queue", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Username to queue as (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newQueueLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave the matchmaking queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/matchmaking/queue"); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Left the queue")
			return nil
		},
	}
}

func newQueueStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your queue position",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result QueueStatus

			if err := client.Get("/api/v1/matchmaking/queue", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
