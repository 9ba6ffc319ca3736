package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomFindCmd())
	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomLeaveCmd())
	cmd.AddCommand(newRoomReadyCmd())
	cmd.AddCommand(newRoomKickCmd())
	cmd.AddCommand(newRoomSettingsCmd())
	cmd.AddCommand(newRoomResetCmd())

	return cmd
}

// createRoomRequest matches the API request body
type createRoomRequest struct {
	Username   string        `json:"username"`
	IsPublic   bool          `json:"is_public,omitempty"`
	MaxPlayers int           `json:"max_players,omitempty"`
	Settings   *RoomSettings `json:"settings,omitempty"`
}

func newRoomCreateCmd() *cobra.Command {
	var name string
	var public bool
	var maxPlayers int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := createRoomRequest{
				Username:   name,
				IsPublic:   public,
				MaxPlayers: maxPlayers,
			}

			var result Room

			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Username to join as (required)")
	cmd.Flags().BoolVar(&public, "public", false, "List the room publicly")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "Max players (default: server default)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			var result Room

			if err := client.Get(fmt.Sprintf("/api/v1/rooms/%s", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <code>",
		Short: "Look up a room by its join code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			var result Room

			if err := client.Get(fmt.Sprintf("/api/v1/rooms/code/%s", code), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List public rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []RoomSummary

			if err := client.Get("/api/v1/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a room by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			req := map[string]string{"username": name}
			var result Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/code/%s/join", code), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Username to join as (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newRoomLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Leave a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/leave", id), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Left room %s", id))
			return nil
		},
	}
}

func newRoomReadyCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "ready <id>",
		Short: "Mark yourself ready in the lobby",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			req := map[string]bool{"ready": !clear}
			var result Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/ready", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the ready flag instead of setting it")

	return cmd
}

func newRoomKickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kick <id> <player-id>",
		Short: "Kick a player from the lobby (host only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			req := map[string]string{"target_id": args[1]}
			var result Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/kick", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomSettingsCmd() *cobra.Command {
	var maxPlayers, discussion, voting, night int
	var public, private bool

	cmd := &cobra.Command{
		Use:   "settings <id>",
		Short: "Update room settings (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if public && private {
				return fmt.Errorf("--public and --private are mutually exclusive")
			}

			// The API takes the full settings block, so start from the
			// room's current settings and overlay the changed flags
			var current Room
			if err := client.Get(fmt.Sprintf("/api/v1/rooms/%s", id), &current); err != nil {
				return err
			}

			settings := current.Settings
			if maxPlayers > 0 {
				settings.MaxPlayers = maxPlayers
			}
			if discussion > 0 {
				settings.DiscussionTime = discussion
			}
			if voting > 0 {
				settings.VotingTime = voting
			}
			if night > 0 {
				settings.NightTime = night
			}
			if public {
				settings.IsPublic = true
			}
			if private {
				settings.IsPublic = false
			}

			req := map[string]RoomSettings{"settings": settings}
			var result Room

			if err := client.Patch(fmt.Sprintf("/api/v1/rooms/%s/settings", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "Max players")
	cmd.Flags().IntVar(&discussion, "discussion", 0, "Discussion phase length in seconds")
	cmd.Flags().IntVar(&voting, "voting", 0, "Voting phase length in seconds")
	cmd.Flags().IntVar(&night, "night", 0, "Night phase length in seconds")
	cmd.Flags().BoolVar(&public, "public", false, "List the room publicly")
	cmd.Flags().BoolVar(&private, "private", false, "Unlist the room")

	return cmd
}

func newRoomResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <id>",
		Short: "Reset a finished game back to the lobby (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			var result Room

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/reset", id), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
