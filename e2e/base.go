package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"talkline/domain"
	"talkline/infrastructure/httpapi"
	"talkline/infrastructure/ws"
	"talkline/observability"
	"talkline/repositories"
	"talkline/runtime"
	"talkline/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

const readTimeout = 5 * time.Second

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// BaseSuite boots the full service in-process: real store, real presence
// registry, real websocket transport behind an httptest server.
type BaseSuite struct {
	suite.Suite
	Config Config

	db       *badger.DB
	messages *repositories.MessageRepository
	Registry *runtime.Registry
	Server   *httptest.Server
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// SetupTest builds a fresh stack per test so message ids are deterministic.
func (s *BaseSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).
		WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.db = db

	userRepository := repositories.NewUserRepository(db)
	messageRepository, err := repositories.NewMessageRepository(db, log)
	s.Require().NoError(err)
	s.messages = messageRepository

	s.Registry = runtime.NewRegistry()
	monitor := observability.NewMonitor(log)

	chatService := services.NewChatService(log, userRepository, messageRepository,
		s.Registry, nil, monitor)
	authService := services.NewAuthService(userRepository, time.Hour)
	directoryService := services.NewDirectoryService(userRepository)

	wsHandler := ws.NewHandler(log, chatService, 16)
	router := httpapi.NewRouter(log, authService, directoryService, wsHandler.Serve)

	s.Server = httptest.NewServer(router.Engine())
}

func (s *BaseSuite) TearDownTest() {
	s.Server.Close()
	_ = s.messages.Close()
	_ = s.db.Close()
}

// Step prints a colorized header so long scenario logs stay readable.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Register creates an account over the REST surface and returns its session.
func (s *BaseSuite) Register(displayName, password string) session {
	body, err := json.Marshal(map[string]string{
		"display_name": displayName,
		"password":     password,
	})
	s.Require().NoError(err)

	resp, err := http.Post(s.Server.URL+"/api/register", "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var sess session
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&sess))
	s.Require().NotEmpty(sess.Token)
	return sess
}

// Dial opens an authenticated websocket connection against the test server.
func (s *BaseSuite) Dial(token string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().NoError(err)
	return conn
}

// Send writes one event envelope on the connection.
func (s *BaseSuite) Send(conn *websocket.Conn, eventName string, payload any) {
	data, err := json.Marshal(payload)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(envelope{Event: eventName, Data: data}))
}

// Receive blocks until the next event frame or fails the test on timeout.
func (s *BaseSuite) Receive(conn *websocket.Conn) envelope {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, raw, err := conn.ReadMessage()
	s.Require().NoError(err)

	if s.Config.DebugJSON {
		s.T().Logf("FRAME: %s", raw)
	}

	var env envelope
	s.Require().NoError(json.Unmarshal(raw, &env))
	return env
}

// WaitOnline polls the presence registry until the expected number of users
// hold a live connection. Connection setup finishes asynchronously after the
// handshake, so tests must not assume presence immediately after Dial.
func (s *BaseSuite) WaitOnline(want int) {
	s.Require().Eventually(func() bool {
		return s.Registry.Online() == want
	}, 2*time.Second, 10*time.Millisecond)
}
