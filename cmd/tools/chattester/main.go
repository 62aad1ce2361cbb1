package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/fatih/color"

	chathandler "github.com/smarttalks/booker-agent/internal/handler/chat"
	"github.com/smarttalks/booker-agent/internal/model/chat"
)

var baseURL = flag.String("url", "http://localhost:8080", "Booking assistant API base URL")

func main() {
	flag.Parse()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	session, err := createSession(*baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create session: %v\n", err)
		fmt.Fprintln(os.Stderr, "make sure the API is running: go run ./cmd/api")
		os.Exit(1)
	}

	fmt.Println(boldGreen("Booking Assistant Chat"))
	fmt.Printf("Session: %s\n", boldCyan(session.ID))
	fmt.Println("Type your message and press Enter. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()
	fmt.Printf("%s %s\n\n", boldCyan("Assistant:"), session.Greeting.Content)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			break
		}

		fmt.Print(boldCyan("Assistant: "))
		if err := streamTurn(*baseURL, session.ID, input, yellow); err != nil {
			fmt.Fprintf(os.Stderr, "\nturn failed: %v\n", err)
			continue
		}
		fmt.Println()
		fmt.Println()
	}
}

func createSession(base string) (chat.Session, error) {
	resp, err := http.Post(base+"/api/session", "application/json", nil)
	if err != nil {
		return chat.Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return chat.Session{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var session chat.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return chat.Session{}, err
	}
	return session, nil
}

// streamTurn runs one turn against the SSE endpoint, printing reply deltas
// as they arrive and annotating action and calendar events.
func streamTurn(base, sessionID, message string, highlight func(...interface{}) string) error {
	endpoint := fmt.Sprintf("%s/api/stream/%s?message=%s", base, sessionID, url.QueryEscape(message))
	resp, err := http.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var frame chathandler.StreamResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			return fmt.Errorf("malformed frame %q: %w", line, err)
		}

		switch frame.Event {
		case "delta":
			fmt.Print(frame.Content)
		case "action":
			fmt.Printf("\n%s %s\n", highlight("[action "+frame.Type+"]"), frame.Content)
		case "selectDate":
			fmt.Printf("\n%s\n", highlight("[calendar "+frame.Date+"]"))
		case "error":
			return fmt.Errorf("server error: %s", frame.Error)
		case "end":
			return nil
		}
	}
	return scanner.Err()
}
