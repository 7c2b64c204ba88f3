package handlers

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"cineview/utils"
)

// defaultProxyUserAgent is sent upstream when the client did not supply one;
// some stream origins reject requests without a browser-looking agent.
const defaultProxyUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.88 Safari/537.36"

// StreamProxyHandler pipes a remote media stream through the backend,
// forwarding the headers origins tend to require and copying the response
// headers players rely on for seeking.
type StreamProxyHandler struct {
	httpc *http.Client
}

func NewStreamProxyHandler(httpc *http.Client) *StreamProxyHandler {
	if httpc == nil {
		// No client timeout: media streams stay open far longer than any
		// sane request deadline. Cancellation rides the request context.
		httpc = &http.Client{}
	}
	return &StreamProxyHandler{httpc: httpc}
}

// Proxy handles GET /stream/proxy?url=.
func (h *StreamProxyHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		http.Error(w, "url parameter required", http.StatusBadRequest)
		return
	}

	// Playlist stream URLs occasionally carry raw spaces.
	streamURL, err := utils.EncodeURLWithSpaces(rawURL)
	if err != nil {
		http.Error(w, "invalid stream url", http.StatusBadRequest)
		return
	}

	session := uuid.NewString()[:8]
	log.Printf("[proxy] %s fetching %s", session, streamURL)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, streamURL, nil)
	if err != nil {
		http.Error(w, "invalid stream url", http.StatusBadRequest)
		return
	}
	copyForwardHeaders(req, r, streamURL)

	resp, err := h.httpc.Do(req)
	if err != nil {
		log.Printf("[proxy] %s upstream request failed: %v", session, err)
		http.Error(w, "could not reach upstream stream", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("[proxy] %s upstream returned status %d", session, resp.StatusCode)
		http.Error(w, "upstream stream error", resp.StatusCode)
		return
	}

	body := io.Reader(resp.Body)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		// Sniff a prefix of the body when the origin omits the type.
		header := make([]byte, 3072)
		n, _ := io.ReadFull(resp.Body, header)
		contentType = mimetype.Detect(header[:n]).String()
		body = io.MultiReader(bytes.NewReader(header[:n]), resp.Body)
	}
	w.Header().Set("Content-Type", contentType)
	for _, name := range []string{"Content-Length", "Accept-Ranges", "Content-Encoding"} {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	written, err := io.Copy(w, body)
	if err != nil {
		log.Printf("[proxy] %s stream interrupted after %d bytes: %v", session, written, err)
		return
	}
	log.Printf("[proxy] %s stream finished (%d bytes)", session, written)
}

// copyForwardHeaders forwards the client's User-Agent, Referer and
// Accept-Encoding upstream, with the fallbacks origins expect.
func copyForwardHeaders(upstream *http.Request, client *http.Request, streamURL string) {
	ua := client.Header.Get("User-Agent")
	if ua == "" {
		ua = defaultProxyUserAgent
	}
	upstream.Header.Set("User-Agent", ua)

	referer := client.Header.Get("Referer")
	if referer == "" {
		referer = streamURL
	}
	upstream.Header.Set("Referer", referer)

	accept := client.Header.Get("Accept-Encoding")
	if accept == "" {
		accept = "br, gzip"
	}
	upstream.Header.Set("Accept-Encoding", accept)
}
