package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/wsrooms/wsrooms/pkg"
)

const chatPage = `<!DOCTYPE html>
<html>
    <head>
        <title>Chat</title>
    </head>
    <body>
        <h1>Chat room</h1>
        <form action="" onsubmit="sendMessage(event)">
            <input type="text" id="messageText" autocomplete="off"/>
            <button>Send</button>
        </form>
        <ul id="messages"></ul>
        <script>
            var ws = new WebSocket("ws://" + location.host + "/api/v1/chat");
            ws.onmessage = function(event) {
                var messages = document.getElementById('messages');
                var message = document.createElement('li');
                message.appendChild(document.createTextNode(event.data));
                messages.appendChild(message);
            };
            function sendMessage(event) {
                var input = document.getElementById("messageText");
                ws.send(input.value);
                input.value = '';
                event.preventDefault();
            }
        </script>
    </body>
</html>`

func main() {
	room := newChatRoom()

	chatRouter := mux.NewRouter()
	chatRouter.HandleFunc("/", chatPageHandler)
	chatRouter.HandleFunc("/api/v1/health", healthHandler)
	chatRouter.HandleFunc("/api/v1/chat", socketHandler(room))

	chatServer := &http.Server{
		Addr: envString("CHAT_ADDR", ":8080"),
		Handler: promhttp.InstrumentHandlerInFlight(pkg.RoomServerInFlightGauge,
			promhttp.InstrumentHandlerCounter(pkg.RoomServerRequestsCounter,
				chatRouter)),
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    envString("METRICS_ADDR", ":8081"),
		Handler: metricsRouter,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Starting chat server on ", chatServer.Addr)
	go func() {
		err := chatServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Chat server failed: ", err)
		}
	}()

	log.Info("Starting metrics server on ", metricsServer.Addr)
	go func() {
		err := metricsServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Metrics server failed: ", err)
		}
	}()

	<-done

	log.Info("Closing chat room...")
	room.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info("Shutting down chat server...")
	if err := chatServer.Shutdown(ctx); err != nil {
		log.Fatal("Chat server shutdown failed: ", err)
	}

	log.Info("Shutting down metrics server...")
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Fatal("Metrics server shutdown failed: ", err)
	}
}

// newChatRoom builds the demo room: every text message is re-broadcast to
// all members, and joins and leaves are announced as JSON events.
func newChatRoom() *pkg.Room {
	room := pkg.NewRoom()

	room.OnReceive(pkg.KindText, func(r *pkg.Room, c pkg.Conn, msg pkg.Message) error {
		log.WithFields(log.Fields{"conn": c.ID()}).Info("Received message: ", msg.Text)
		r.PushText(msg.Text)
		return nil
	})

	room.OnConnect(pkg.After, func(r *pkg.Room, c pkg.Conn) error {
		r.PushJSON(map[string]any{"event": "joined", "members": r.Size()})
		return nil
	})

	room.OnDisconnect(pkg.After, func(r *pkg.Room, c pkg.Conn) error {
		r.PushJSON(map[string]any{"event": "left", "members": r.Size()})
		return nil
	})

	return room
}

// socketHandler upgrades the request and routes the connection into the
// room. Connect blocks for the connection's entire lifetime, which is
// exactly the lifetime of this handler.
func socketHandler(room *pkg.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")

		conn, err := pkg.Upgrade(w, r)
		if err != nil {
			log.Error("Failed to upgrade connection: ", err)
			return
		}

		log.WithFields(log.Fields{
			"conn":   conn.ID(),
			"remote": conn.RemoteAddr(),
		}).Info("New connection")

		if err := room.Connect(conn); err != nil {
			log.Error("Connection ended: ", err)
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
}

func chatPageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, chatPage); err != nil {
		log.Error("Failed to write chat page: ", err)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
