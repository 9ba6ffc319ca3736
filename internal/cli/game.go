package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameStartCmd())
	cmd.AddCommand(newGameActionCmd())
	cmd.AddCommand(newGameVoteCmd())
	cmd.AddCommand(newGameChatCmd())

	return cmd
}

func newGameStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start the game (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			var result Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/start", id), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

// actionKinds maps CLI verbs to API action names
var actionKinds = map[string]string{
	"kill":    "mafiaKill",
	"save":    "doctorSave",
	"inspect": "detectiveInspect",
}

func newGameActionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action <id> <kill|save|inspect> <target-id>",
		Short: "Submit your night action",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			kind, ok := actionKinds[args[1]]
			if !ok {
				return fmt.Errorf("unknown action %q (want kill, save, or inspect)", args[1])
			}

			req := map[string]string{
				"action":    kind,
				"target_id": args[2],
			}
			var result Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/actions", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <id> <target-id>",
		Short: "Vote to eliminate a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			req := map[string]string{"target_id": args[1]}
			var result Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/vote", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameChatCmd() *cobra.Command {
	var private bool

	cmd := &cobra.Command{
		Use:   "chat <id> <text>",
		Short: "Send a chat message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			req := map[string]any{
				"text":       args[1],
				"is_private": private,
			}
			var result Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/chat", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "Send on the mafia channel")

	return cmd
}
