package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweeparena/sweeparena/internal/ws"
)

func newCreateCmd() *cobra.Command {
	var (
		name       string
		mode       string
		difficulty string
		maxPlayers int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and play interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return playSession(ws.Intent{
				Type:        ws.IntentCreateRoom,
				DisplayName: name,
				Mode:        mode,
				Difficulty:  difficulty,
				MaxPlayers:  maxPlayers,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "player", "Display name")
	cmd.Flags().StringVar(&mode, "mode", "standard", "Game mode")
	cmd.Flags().StringVar(&difficulty, "difficulty", "easy", "Difficulty preset")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "Max players (default server-side)")
	return cmd
}

func newJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join CODE",
		Short: "Join a room by code and play interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return playSession(ws.Intent{
				Type:        ws.IntentJoinRoom,
				DisplayName: name,
				Code:        args[0],
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "player", "Display name")
	return cmd
}

// playSession opens a connection, sends the opening intent, then
// bridges stdin commands to intents while printing every server event.
func playSession(opening ws.Intent) error {
	client, err := Dial(serverURL)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Send(opening); err != nil {
		return err
	}

	go func() {
		for {
			msg, err := client.Next()
			if err != nil {
				fmt.Fprintln(os.Stderr, "connection closed:", err)
				os.Exit(0)
			}
			printEvent(msg)
		}
	}()

	fmt.Println("commands: ready | reveal R C | flag R C | mode M | leave")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		intent, ok := parseCommand(scanner.Text())
		if !ok {
			fmt.Println("unrecognized command")
			continue
		}
		if err := client.Send(intent); err != nil {
			return err
		}
		if intent.Type == ws.IntentLeaveRoom {
			return nil
		}
	}
	return scanner.Err()
}

func parseCommand(line string) (ws.Intent, bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return ws.Intent{}, false
	}

	switch fields[0] {
	case "ready":
		return ws.Intent{Type: ws.IntentPlayerReady}, true
	case "leave":
		return ws.Intent{Type: ws.IntentLeaveRoom}, true
	case "mode":
		if len(fields) != 2 {
			return ws.Intent{}, false
		}
		return ws.Intent{Type: ws.IntentChangeMode, Mode: fields[1]}, true
	case "reveal", "flag":
		if len(fields) != 3 {
			return ws.Intent{}, false
		}
		row, err1 := strconv.Atoi(fields[1])
		col, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			return ws.Intent{}, false
		}
		t := ws.IntentReveal
		if fields[0] == "flag" {
			t = ws.IntentFlag
		}
		return ws.Intent{Type: t, Row: row, Col: col}, true
	}
	return ws.Intent{}, false
}

func printEvent(raw json.RawMessage) {
	fmt.Println(formatEvent(raw))
}

// formatEvent pretty-prints a server message, falling back to the raw
// bytes when they are not valid JSON.
func formatEvent(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
