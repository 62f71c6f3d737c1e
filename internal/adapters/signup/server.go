package signup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/ezlumper/haulpass-cli/internal/embedsync"
	"github.com/go-chi/chi/v5"
)

const maxEventBytes = 64 << 10

// Server hosts the signup page locally: a thin shell around the provider's
// embedded form. The page script forwards every window message event it sees
// to the relay endpoint; the synchronizer decides which of them may resize
// the frame. The server itself never trusts the forwarded values.
type Server struct {
	sync      *embedsync.Synchronizer
	formURL   string
	listener  net.Listener
	server    *http.Server
	closeOnce sync.Once
}

// Config for the relay. FrameID names the embedded iframe element so spoofed
// messages from sibling frames on the same origin are rejected.
type Config struct {
	ListenAddr     string
	FormURL        string
	OriginFragment string
	FrameID        string
	ViewportWidth  int
}

func Start(cfg Config) (*Server, error) {
	if cfg.FormURL == "" {
		return nil, errors.New("signup form url is required")
	}
	if cfg.OriginFragment == "" {
		return nil, errors.New("embed origin fragment is required")
	}
	listenAddr := cfg.ListenAddr
	if listenAddr == "" {
		listenAddr = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen signup server: %w", err)
	}

	s := &Server{
		sync:     embedsync.NewSynchronizer(cfg.OriginFragment, cfg.FrameID, cfg.ViewportWidth),
		formURL:  cfg.FormURL,
		listener: listener,
	}
	s.server = &http.Server{Handler: s.routes(cfg.FrameID)}

	go func() {
		if serveErr := s.server.Serve(s.listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			_ = serveErr
		}
	}()

	return s, nil
}

func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String()
}

func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.server.Close()
	})
	return err
}

func (s *Server) routes(frameID string) http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handlePage(frameID))
	r.Get("/embed/height", s.handleHeight)
	r.Post("/embed/events", s.handleEvent)
	r.Post("/embed/resize", s.handleResize)
	return r
}

type eventBody struct {
	Origin  string `json:"origin"`
	FrameID string `json:"frameId"`
	Data    string `json:"data"`
}

type resizeBody struct {
	Width int `json:"width"`
}

type heightResponse struct {
	Height  int  `json:"height"`
	Applied bool `json:"applied"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var body eventBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBytes)).Decode(&body); err != nil {
		// malformed relay posts are discarded like any other bad message
		writeJSON(w, heightResponse{Height: s.sync.Height()})
		return
	}

	height, applied := s.sync.Observe(embedsync.Message{
		Origin:  body.Origin,
		FrameID: body.FrameID,
		Data:    body.Data,
	})
	writeJSON(w, heightResponse{Height: height, Applied: applied})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var body resizeBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBytes)).Decode(&body); err != nil {
		writeJSON(w, heightResponse{Height: s.sync.Height()})
		return
	}

	writeJSON(w, heightResponse{Height: s.sync.Resize(body.Width), Applied: true})
}

func (s *Server) handleHeight(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, heightResponse{Height: s.sync.Height()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handlePage(frameID string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, pageTemplate, s.formURL, frameID)
	}
}

// The page forwards message and resize events to the relay and applies only
// the heights the relay hands back.
const pageTemplate = `<!doctype html>
<html>
<head><title>Secure Your H.A.U.L. PASS</title></head>
<body style="margin:0;background:#0b0e14">
<iframe id="%[2]s" src="%[1]s" style="width:100%%;height:2360px;border:none"
        title="H.A.U.L. PASS Sign Up Form" loading="lazy"></iframe>
<script>
const frame = document.getElementById(%[2]q);
async function relay(path, body) {
  const res = await fetch(path, {
    method: "POST",
    headers: {"content-type": "application/json"},
    body: JSON.stringify(body),
  });
  const out = await res.json();
  if (out.applied) frame.style.height = out.height + "px";
}
window.addEventListener("message", (event) => {
  relay("/embed/events", {
    origin: event.origin,
    frameId: event.source === frame.contentWindow ? %[2]q : "",
    data: typeof event.data === "string" ? event.data : JSON.stringify(event.data),
  }).catch(() => {});
});
window.addEventListener("resize", () => {
  relay("/embed/resize", {width: window.innerWidth}).catch(() => {});
});
</script>
</body>
</html>
`
