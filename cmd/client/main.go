package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"talkline/domain"
	"talkline/internal"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"TALKLINE_SERVER_ADDR,default=localhost:8080"`
	DisplayName   string `env:"TALKLINE_NAME,required=true"`
	Password      string `env:"TALKLINE_PASSWORD,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// timeline is the local record of everything seen this session, so scrolled
// away messages stay reachable without another server round trip.
type timeline struct {
	mu      sync.Mutex
	entries []string
}

func (t *timeline) Append(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
}

func (t *timeline) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.entries...)
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the connection lifecycle, configuration loading, and the
// interactive prompt. This pattern ensures clean resource management and
// error propagation.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := internal.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Obtain a session, registering the account on first use.
	sess, err := authenticate(config)
	if err != nil {
		return exitRuntime, err
	}
	color.Green.Printf(">>> Logged in as %s\n", sess.User.DisplayName)

	// 4. Open the websocket connection.
	wsURL := fmt.Sprintf("ws://%s/ws?token=%s", config.ServerAddress, sess.Token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	// Defer ensures the connection is closed even if the read loop fails later.
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	color.Cyan.Println(">>> Connected! Commands: @<user> <message> | /users [filter] | /history <user> | /timeline (Ctrl+C to quit)")

	// 5. Message reception loop in the background.
	history := &timeline{}
	readErr := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			render(raw, history)
		}
	}()

	// 6. Interactive prompt loop.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection error: %w", err)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if err := handleInput(config, conn, history, line); err != nil {
				color.Red.Println(err.Error())
			}
		}
	}
}

// authenticate registers the configured account, falling back to login when
// the name is already taken.
func authenticate(config Config) (session, error) {
	sess, err := postCredentials(config, "/api/register")
	if err == nil {
		return sess, nil
	}
	return postCredentials(config, "/api/login")
}

func postCredentials(config Config, path string) (session, error) {
	body, _ := json.Marshal(map[string]string{
		"display_name": config.DisplayName,
		"password":     config.Password,
	})

	url := fmt.Sprintf("http://%s%s", config.ServerAddress, path)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return session{}, fmt.Errorf("could not reach server at %s: %w", config.ServerAddress, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return session{}, fmt.Errorf("%s rejected with status %d", path, resp.StatusCode)
	}

	var sess session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return session{}, fmt.Errorf("malformed session response: %w", err)
	}
	return sess, nil
}

func handleInput(config Config, conn *websocket.Conn, history *timeline, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	switch {
	case strings.HasPrefix(line, "/users"):
		filter := strings.TrimSpace(strings.TrimPrefix(line, "/users"))
		return printDirectory(config, filter)

	case line == "/timeline":
		for _, entry := range history.Entries() {
			fmt.Println(entry)
		}
		return nil

	case strings.HasPrefix(line, "/history "):
		with := strings.TrimSpace(strings.TrimPrefix(line, "/history "))
		return send(conn, "request_history", map[string]string{"with": with})

	case strings.HasPrefix(line, "@"):
		parts := strings.SplitN(strings.TrimPrefix(line, "@"), " ", 2)
		if len(parts) != 2 {
			return fmt.Errorf("usage: @<user> <message>")
		}
		return send(conn, "send_message", map[string]string{
			"to":      parts[0],
			"content": parts[1],
		})

	default:
		return fmt.Errorf("unknown command, use @<user> <message>, /users, /history <user> or /timeline")
	}
}

func send(conn *websocket.Conn, eventName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(envelope{Event: eventName, Data: data})
}

// printDirectory fetches the user directory and renders it as a table.
func printDirectory(config Config, filter string) error {
	url := fmt.Sprintf("http://%s/api/users?search=%s", config.ServerAddress, filter)
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload struct {
		Users []domain.User `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "ID"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, user := range payload.Users {
		table.Append([]string{user.DisplayName, user.ID})
	}
	table.Render()
	return nil
}

// render pretty-prints one inbound server event and records it locally.
func render(raw []byte, history *timeline) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	switch env.Event {
	case "new_message":
		var msg struct {
			From      string    `json:"from"`
			Content   string    `json:"content"`
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		entry := fmt.Sprintf("[%s] %s: %s", msg.CreatedAt.Format(time.TimeOnly), msg.From, msg.Content)
		history.Append(entry)
		color.Yellow.Println(entry)

	case "message_sent":
		var msg domain.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		history.Append(fmt.Sprintf("[%s] me: %s", msg.CreatedAt.Format(time.TimeOnly), msg.Content))
		color.Gray.Printf("[%s] delivered #%d\n", msg.CreatedAt.Format(time.TimeOnly), msg.ID)

	case "history":
		var hist struct {
			With     string           `json:"with"`
			Messages []domain.Message `json:"messages"`
		}
		if err := json.Unmarshal(env.Data, &hist); err != nil {
			return
		}
		color.Cyan.Printf("--- history with %s (%d messages) ---\n", hist.With, len(hist.Messages))
		for _, msg := range hist.Messages {
			color.Cyan.Printf("[%s] %s -> %s: %s\n",
				msg.CreatedAt.Format(time.TimeOnly), msg.SenderID, msg.ReceiverID, msg.Content)
		}
	}
}
