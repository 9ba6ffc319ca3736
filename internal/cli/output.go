package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case []RoomSummary:
		o.printRoomList(v)
	case QueueStatus:
		o.printQueueStatus(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsHost    bool   `json:"is_host"`
	IsAlive   bool   `json:"is_alive"`
	Connected bool   `json:"connected"`
	Ready     bool   `json:"ready,omitempty"`
	Role      string `json:"role,omitempty"`
}

// RoomSettings response type
type RoomSettings struct {
	MaxPlayers     int  `json:"max_players"`
	DiscussionTime int  `json:"discussion_time"`
	VotingTime     int  `json:"voting_time"`
	NightTime      int  `json:"night_time"`
	IsPublic       bool `json:"is_public"`
}

// ChatMessage response type
type ChatMessage struct {
	SenderID string    `json:"sender_id"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Channel  string    `json:"channel"`
	SentAt   time.Time `json:"sent_at"`
}

// NightOutcome response type
type NightOutcome struct {
	Killed *string `json:"killed"`
	Saved  bool    `json:"saved"`
}

// Room response type
type Room struct {
	ID                  string            `json:"id"`
	Code                string            `json:"code"`
	Phase               string            `json:"phase"`
	Players             []Player          `json:"players"`
	Settings            RoomSettings      `json:"settings"`
	Votes               map[string]string `json:"votes,omitempty"`
	Round               int               `json:"round"`
	EliminatedThisRound *string           `json:"eliminated_this_round,omitempty"`
	NightOutcome        *NightOutcome     `json:"night_outcome,omitempty"`
	Winner              string            `json:"winner,omitempty"`
	TimerEnd            *time.Time        `json:"timer_end,omitempty"`
	ChatHistory         []ChatMessage     `json:"chat_history,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// RoomSummary response type
type RoomSummary struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	PlayerCount int       `json:"player_count"`
	MaxPlayers  int       `json:"max_players"`
	CreatedAt   time.Time `json:"created_at"`
}

// QueueStatus response type
type QueueStatus struct {
	Position int `json:"position"`
	Size     int `json:"size"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s (code %s)\n", r.ID, r.Code)
	fmt.Printf("Phase: %s\n", r.Phase)
	if r.Round > 0 {
		fmt.Printf("Round: %d\n", r.Round)
	}
	visibility := "private"
	if r.Settings.IsPublic {
		visibility = "public"
	}
	fmt.Printf("Settings: %d players max, %s, discussion %ds, voting %ds, night %ds\n",
		r.Settings.MaxPlayers, visibility,
		r.Settings.DiscussionTime, r.Settings.VotingTime, r.Settings.NightTime)
	if r.TimerEnd != nil {
		fmt.Printf("Phase ends: %s\n", r.TimerEnd.Local().Format("15:04:05"))
	}

	fmt.Printf("Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		tags := []string{}
		if p.IsHost {
			tags = append(tags, "host")
		}
		if p.Role != "" {
			tags = append(tags, p.Role)
		}
		if p.Ready {
			tags = append(tags, "ready")
		}
		if !p.IsAlive {
			tags = append(tags, "dead")
		}
		if !p.Connected {
			tags = append(tags, "disconnected")
		}
		tagStr := ""
		if len(tags) > 0 {
			tagStr = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Printf("  - %s (%s)%s\n", p.Username, p.ID, tagStr)
	}

	if len(r.Votes) > 0 {
		fmt.Println("Votes:")
		for voter, target := range r.Votes {
			fmt.Printf("  %s -> %s\n", voter, target)
		}
	}

	if r.NightOutcome != nil {
		if r.NightOutcome.Killed != nil {
			fmt.Printf("Last night: %s was killed\n", *r.NightOutcome.Killed)
		} else if r.NightOutcome.Saved {
			fmt.Println("Last night: the doctor saved the target")
		} else {
			fmt.Println("Last night: nobody died")
		}
	}
	if r.EliminatedThisRound != nil {
		fmt.Printf("Eliminated: %s\n", *r.EliminatedThisRound)
	}
	if r.Winner != "" {
		fmt.Printf("Winner: %s\n", r.Winner)
	}

	if len(r.ChatHistory) > 0 {
		fmt.Println("Chat:")
		for _, m := range r.ChatHistory {
			channel := ""
			if m.Channel != "public" {
				channel = " (" + m.Channel + ")"
			}
			fmt.Printf("  [%s] %s%s: %s\n", m.SentAt.Local().Format("15:04:05"), m.Username, channel, m.Text)
		}
	}
}

func (o *Output) printRoomList(rooms []RoomSummary) {
	if len(rooms) == 0 {
		fmt.Println("No public rooms")
		return
	}
	fmt.Printf("Public rooms (%d):\n", len(rooms))
	for _, r := range rooms {
		fmt.Printf("  %s  %d/%d players  (id %s)\n", r.Code, r.PlayerCount, r.MaxPlayers, r.ID)
	}
}

func (o *Output) printQueueStatus(q QueueStatus) {
	fmt.Printf("Queue position: %d of %d\n", q.Position, q.Size)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
