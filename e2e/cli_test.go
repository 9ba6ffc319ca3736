package e2e_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlin/mafiagame-go/internal/api"
	"github.com/mkarlin/mafiagame-go/internal/factory"
)

// cliRunner manages CLI binary execution as a single player identity
type cliRunner struct {
	binaryPath string
	serverURL  string
	playerID   string
}

func newCLIRunner(t *testing.T, serverURL, playerID string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "mafiactl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/mafiactl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		playerID:   playerID,
	}
}

// as returns a runner sharing the built binary but acting as another player
func (r *cliRunner) as(playerID string) *cliRunner {
	return &cliRunner{
		binaryPath: r.binaryPath,
		serverURL:  r.serverURL,
		playerID:   playerID,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--player-id", r.playerID,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	ctx, cancelMatchmaking := context.WithCancel(context.Background())
	app.MatchmakingService.Start(ctx)

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		SessionController:  app.SessionController,
		MatchmakingService: app.MatchmakingService,
		HubManager:         app.HubManager,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			cancelMatchmaking()
			app.MatchmakingService.Stop()
			app.Scheduler.Stop()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type roomResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Phase   string `json:"phase"`
	Players []struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		IsHost    bool   `json:"is_host"`
		IsAlive   bool   `json:"is_alive"`
		Connected bool   `json:"connected"`
		Ready     bool   `json:"ready"`
		Role      string `json:"role"`
	} `json:"players"`
	Settings struct {
		MaxPlayers     int  `json:"max_players"`
		DiscussionTime int  `json:"discussion_time"`
		VotingTime     int  `json:"voting_time"`
		NightTime      int  `json:"night_time"`
		IsPublic       bool `json:"is_public"`
	} `json:"settings"`
	Votes               map[string]string `json:"votes"`
	Round               int               `json:"round"`
	EliminatedThisRound *string           `json:"eliminated_this_round"`
	NightOutcome        *struct {
		Killed *string `json:"killed"`
		Saved  bool    `json:"saved"`
	} `json:"night_outcome"`
	Winner      string `json:"winner"`
	ChatHistory []struct {
		SenderID string `json:"sender_id"`
		Text     string `json:"text"`
		Channel  string `json:"channel"`
	} `json:"chat_history"`
}

type roomSummaryResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

type queueStatusResponse struct {
	Position int `json:"position"`
	Size     int `json:"size"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func getRoom(t *testing.T, r *cliRunner, id string) roomResponse {
	t.Helper()

	output, err := r.run("room", "get", id)
	require.NoError(t, err, "output: %s", output)

	var room roomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	return room
}

// waitForPhase polls the room until it reaches the given phase. Phase
// changes are timer-driven on the server, so e2e tests have to wait for
// real time to pass.
func waitForPhase(t *testing.T, r *cliRunner, id, phase string, timeout time.Duration) roomResponse {
	t.Helper()

	deadline := time.Now().Add(timeout)
	var last roomResponse
	for time.Now().Before(deadline) {
		last = getRoom(t, r, id)
		if last.Phase == phase {
			return last
		}
		time.Sleep(200 * time.Millisecond)
	}

	t.Fatalf("room %s did not reach phase %q in %s (last: %q)", id, phase, timeout, last.Phase)
	return last
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr, "e2e-health")

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_RoomCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	alice := newCLIRunner(t, ts.addr, "e2e-alice")
	bob := alice.as("e2e-bob")

	// Alice creates a public room
	output, err := alice.run("room", "create", "--name", "Alice", "--public", "--max-players", "8")
	require.NoError(t, err, "output: %s", output)

	var room roomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Equal(t, "lobby", room.Phase)
	assert.Equal(t, 8, room.Settings.MaxPlayers)
	assert.True(t, room.Settings.IsPublic)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
	roomID := room.ID
	roomCode := room.Code

	// Look up by code
	output, err = alice.run("room", "find", roomCode)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Equal(t, roomID, room.ID)

	// Bob joins and readies up
	output, err = bob.run("room", "join", roomCode, "--name", "Bob")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Len(t, room.Players, 2)

	output, err = bob.run("room", "ready", roomID)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	for _, p := range room.Players {
		if p.ID == "e2e-bob" {
			assert.True(t, p.Ready)
		}
	}

	// The room shows up in the public listing
	output, err = bob.run("room", "list")
	require.NoError(t, err, "output: %s", output)

	var listing []roomSummaryResponse
	require.NoError(t, json.Unmarshal([]byte(output), &listing))
	require.Len(t, listing, 1)
	assert.Equal(t, roomCode, listing[0].Code)
	assert.Equal(t, 2, listing[0].PlayerCount)

	// Host tweaks settings
	output, err = alice.run("room", "settings", roomID, "--discussion", "90", "--private")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Equal(t, 90, room.Settings.DiscussionTime)
	assert.False(t, room.Settings.IsPublic)

	// Host kicks Bob
	output, err = alice.run("room", "kick", roomID, "e2e-bob")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Len(t, room.Players, 1)

	// Alice leaves, deleting the room
	output, err = alice.run("room", "leave", roomID)
	require.NoError(t, err, "output: %s", output)

	var msg messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.Contains(t, msg.Message, "Left room")

	_, err = alice.run("room", "get", roomID)
	require.Error(t, err)
}

func TestCLI_QueueCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr, "e2e-queue-1")

	output, err := cli.run("queue", "join", "--name", "Solo")
	require.NoError(t, err, "output: %s", output)

	var status queueStatusResponse
	require.NoError(t, json.Unmarshal([]byte(output), &status))
	assert.Equal(t, 1, status.Position)
	assert.Equal(t, 1, status.Size)

	output, err = cli.run("queue", "status")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &status))
	assert.Equal(t, 1, status.Position)

	output, err = cli.run("queue", "leave")
	require.NoError(t, err, "output: %s", output)

	var msg messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.Contains(t, msg.Message, "Left the queue")

	_, err = cli.run("queue", "status")
	require.Error(t, err)
}

func TestCLI_FullGameFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("full game flow waits on real phase timers")
	}

	ts := startTestServer(t)
	defer ts.shutdown()

	host := newCLIRunner(t, ts.addr, "e2e-p1")
	ids := []string{"e2e-p1", "e2e-p2", "e2e-p3", "e2e-p4", "e2e-p5"}
	runners := map[string]*cliRunner{"e2e-p1": host}
	for _, id := range ids[1:] {
		runners[id] = host.as(id)
	}

	// Host creates the room
	output, err := host.run("room", "create", "--name", "p1")
	require.NoError(t, err, "output: %s", output)
	var room roomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	roomID := room.ID
	roomCode := room.Code

	// Shorten the phases so the test is not half a minute per round
	output, err = host.run("room", "settings", roomID, "--discussion", "2", "--voting", "6", "--night", "6")
	require.NoError(t, err, "output: %s", output)

	// Everyone else joins
	for i, id := range ids[1:] {
		output, err = runners[id].run("room", "join", roomCode, "--name", fmt.Sprintf("p%d", i+2))
		require.NoError(t, err, "output: %s", output)
	}

	// Host starts the game
	output, err = host.run("game", "start", roomID)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Equal(t, "role_reveal", room.Phase)
	assert.Equal(t, 1, room.Round)

	// Each player learns their own role and nobody else's
	roles := map[string]string{}
	for _, id := range ids {
		view := getRoom(t, runners[id], roomID)
		for _, p := range view.Players {
			if p.ID == id {
				require.NotEmpty(t, p.Role, "player %s should see their own role", id)
				roles[id] = p.Role
			} else {
				assert.Empty(t, p.Role, "player %s should not see %s's role", id, p.ID)
			}
		}
	}
	t.Logf("roles: %v", roles)

	var mafia, doctor, detective string
	villagers := []string{}
	for id, role := range roles {
		switch role {
		case "mafia":
			mafia = id
		case "doctor":
			doctor = id
		case "detective":
			detective = id
		default:
			villagers = append(villagers, id)
		}
	}
	require.NotEmpty(t, mafia)
	require.NotEmpty(t, doctor)
	require.NotEmpty(t, detective)
	require.Len(t, villagers, 2)

	// Role reveal advances to night on its own
	waitForPhase(t, host, roomID, "night", 15*time.Second)

	// Night 1: mafia kills a villager, doctor saves the detective,
	// detective inspects the mafia
	victim := villagers[0]
	_, err = runners[mafia].run("game", "action", roomID, "kill", victim)
	require.NoError(t, err)
	_, err = runners[doctor].run("game", "action", roomID, "save", detective)
	require.NoError(t, err)
	_, err = runners[detective].run("game", "action", roomID, "inspect", mafia)
	require.NoError(t, err)

	// Night resolves into day
	room = waitForPhase(t, host, roomID, "day", 15*time.Second)
	require.NotNil(t, room.NightOutcome)
	require.NotNil(t, room.NightOutcome.Killed)
	assert.Equal(t, victim, *room.NightOutcome.Killed)
	for _, p := range room.Players {
		if p.ID == victim {
			assert.False(t, p.IsAlive)
		}
	}

	// Day chat
	_, err = host.run("game", "chat", roomID, "someone died last night")
	require.NoError(t, err)

	// Voting: the village unites against the mafia
	waitForPhase(t, host, roomID, "voting", 10*time.Second)
	for _, id := range ids {
		if id == victim {
			continue // dead players do not vote
		}
		target := mafia
		if id == mafia {
			target = detective
		}
		_, err = runners[id].run("game", "vote", roomID, target)
		require.NoError(t, err, "vote by %s", id)
	}

	// The vote eliminates the mafia and the village wins
	room = waitForPhase(t, host, roomID, "game_end", 15*time.Second)
	assert.Equal(t, "villagers", room.Winner)
	require.NotNil(t, room.EliminatedThisRound)
	assert.Equal(t, mafia, *room.EliminatedThisRound)

	// All roles are revealed once the game is over
	view := getRoom(t, runners[villagers[1]], roomID)
	for _, p := range view.Players {
		assert.NotEmpty(t, p.Role, "role of %s should be revealed after game end", p.ID)
	}

	// Host resets back to the lobby
	output, err = host.run("room", "reset", roomID)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Equal(t, "lobby", room.Phase)
	assert.Empty(t, room.Winner)
}
