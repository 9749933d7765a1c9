// Command main connects to the notification socket and prints every event
// it receives for one user.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type socketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	host := flag.String("host", "localhost:5000", "API server host")
	token := flag.String("token", os.Getenv("FITNESS_TOKEN"), "JWT for the user to watch")
	userID := flag.Uint("user", 0, "User id to register for")
	flag.Parse()

	if *token == "" || *userID == 0 {
		log.Fatal("both -token and -user are required")
	}

	ticket, err := getTicket(*host, *token)
	if err != nil {
		log.Fatalf("❌ Ticket request failed: %v", err)
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("❌ Dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(map[string]any{"event": "register", "data": *userID}); err != nil {
		log.Fatalf("❌ Register failed: %v", err)
	}
	log.Printf("✅ Connected to %s, watching user %d", u.Host, *userID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg socketMessage
			if err := conn.ReadJSON(&msg); err != nil {
				log.Printf("connection closed: %v", err)
				return
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, msg.Data, "", "  "); err != nil {
				pretty.Write(msg.Data)
			}
			fmt.Printf("[%s] %s\n%s\n", time.Now().Format(time.TimeOnly), msg.Event, pretty.String())
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
	case <-interrupt:
		log.Println("🛑 Interrupted by user")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func getTicket(host, token string) (string, error) {
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/ws/ticket", host), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket request failed with status %d", resp.StatusCode)
	}

	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}
