package follow

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"outsift/pkg/markdown"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The follow stream is read-only diagnostics; any origin may watch.
	CheckOrigin: func(*http.Request) bool { return true },
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>outsift follow</title></head>
<body>
<h1>outsift follow</h1>
<pre id="lines"></pre>
<script>
const pre = document.getElementById("lines");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (e) => {
  const ev = JSON.parse(e.data);
  pre.textContent += ev.line + "\n";
};
ws.onclose = () => { pre.textContent += "-- stream closed --\n"; };
</script>
%s
</body>
</html>`

// Handler returns the HTTP handler for the follow server: an index page
// with the rendered help text and the /ws streaming endpoint.
func Handler(hub *Hub, helpMarkdown string) http.Handler {
	mux := http.NewServeMux()

	helpHTML := markdown.RenderToHTML(helpMarkdown)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, pageTemplate, helpHTML)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}
		serveClient(hub, conn)
	})

	return mux
}

// Serve blocks on the listener; callers run it in its own goroutine.
func Serve(addr string, hub *Hub, helpMarkdown string) error {
	slog.Info("follow server listening", "addr", addr)
	return http.ListenAndServe(addr, Handler(hub, helpMarkdown))
}

func serveClient(hub *Hub, conn *websocket.Conn) {
	c := hub.register()
	defer func() {
		hub.unregister(c)
		_ = conn.Close()
	}()

	// Reader goroutine only detects disconnect; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-c.events:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
