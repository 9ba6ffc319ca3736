package sse

import (
	"testing"
	"time"

	"github.com/mkarlin/mafiagame-go/internal/model"
	"github.com/mkarlin/mafiagame-go/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "room_updated",
			data:      `{"phase":"lobby"}`,
			expected:  "event: room_updated\ndata: {\"phase\":\"lobby\"}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "chat_message",
			data:      "line1\nline2",
			expected:  "event: chat_message\ndata: line1\ndata: line2\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single line",
			input:    "hello",
			expected: []string{"hello"},
		},
		{
			name:     "two lines",
			input:    "line1\nline2",
			expected: []string{"line1", "line2"},
		},
		{
			name:     "trailing newline",
			input:    "line1\n",
			expected: []string{"line1"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{""},
		},
		{
			name:     "crlf line endings",
			input:    "line1\r\nline2\r\n",
			expected: []string{"line1", "line2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLines(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("splitLines(%q) returned %d lines, want %d",
					tt.input, len(result), len(tt.expected))
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q",
						tt.input, i, line, tt.expected[i])
				}
			}
		})
	}
}

// receive waits for a message on the client's send channel
func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg := <-client.send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

// assertNoMessage verifies the client received nothing
func assertNoMessage(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.send:
		t.Errorf("unexpected message: %q", string(msg))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub(RoomTopic("room-1"), testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "player1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.BroadcastEvent("phase_changed", `{"phase":"night"}`)
	got := receive(t, client)
	want := "event: phase_changed\ndata: {\"phase\":\"night\"}\n\n"
	if got != want {
		t.Errorf("broadcast message = %q, want %q", got, want)
	}
}

func TestHub_SendToTargetsOnePlayer(t *testing.T) {
	hub := NewHub(RoomTopic("room-1"), testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	detective := NewClient(hub, "p3")
	villager := NewClient(hub, "p4")
	hub.Register(detective)
	hub.Register(villager)
	time.Sleep(10 * time.Millisecond)

	hub.SendEventTo("p3", "inspect_result", `{"is_mafia":true}`)

	got := receive(t, detective)
	if got != "event: inspect_result\ndata: {\"is_mafia\":true}\n\n" {
		t.Errorf("direct message = %q", got)
	}
	assertNoMessage(t, villager)
}

func TestHub_SendToSetTargetsAudience(t *testing.T) {
	hub := NewHub(RoomTopic("room-1"), testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	mafia1 := NewClient(hub, "p1")
	mafia2 := NewClient(hub, "p2")
	town := NewClient(hub, "p5")
	hub.Register(mafia1)
	hub.Register(mafia2)
	hub.Register(town)
	time.Sleep(10 * time.Millisecond)

	audience := map[model.PlayerID]bool{"p1": true, "p2": true}
	hub.SendToSet(audience, formatSSEMessage("chat_message", `{"channel":"mafia"}`))

	receive(t, mafia1)
	receive(t, mafia2)
	assertNoMessage(t, town)
}

func TestHub_SendToReachesAllOfPlayersConnections(t *testing.T) {
	hub := NewHub(RoomTopic("room-1"), testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	tab1 := NewClient(hub, "p1")
	tab2 := NewClient(hub, "p1")
	hub.Register(tab1)
	hub.Register(tab2)
	time.Sleep(10 * time.Millisecond)

	hub.SendEventTo("p1", "role_assigned", `{"role":"mafia"}`)

	receive(t, tab1)
	receive(t, tab2)
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := NewHub(RoomTopic("room-1"), testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "player1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestHubManager(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	hub := manager.GetOrCreateHub(RoomTopic("room-1"))
	if hub == nil {
		t.Fatal("GetOrCreateHub returned nil")
	}
	if manager.GetOrCreateHub(RoomTopic("room-1")) != hub {
		t.Error("GetOrCreateHub should return the existing hub")
	}
	if manager.GetHub(RoomTopic("room-2")) != nil {
		t.Error("GetHub for unknown topic should return nil")
	}

	manager.RemoveHub(RoomTopic("room-1"))
	if manager.GetHub(RoomTopic("room-1")) != nil {
		t.Error("hub should be gone after RemoveHub")
	}
}
