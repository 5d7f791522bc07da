package connect

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/emberops/burnoutctl/internal/model"
)

const (
	// DefaultCallbackPort is the default port for the local callback server.
	DefaultCallbackPort = 8457
	// CallbackPathPattern is the redirect path registered with each provider.
	CallbackPathPattern = "/setup/%s/callback"
)

// CallbackResult is one redirect received by the local listener.
type CallbackResult struct {
	Code  string
	State string
	Err   string
}

// Listener is a local HTTP server that receives the provider's browser
// redirect and hands code/state to the connection manager.
type Listener struct {
	provider   model.Provider
	port       int
	resultChan chan *CallbackResult
	server     *http.Server
}

// NewListener creates a callback listener for one provider.
func NewListener(provider model.Provider, port int) *Listener {
	if port == 0 {
		port = DefaultCallbackPort
	}

	return &Listener{
		provider:   provider,
		port:       port,
		resultChan: make(chan *CallbackResult, 1),
	}
}

// Start begins serving the callback path on localhost.
func (l *Listener) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf(CallbackPathPattern, l.provider), l.handleCallback)

	addr := fmt.Sprintf("127.0.0.1:%d", l.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			l.resultChan <- &CallbackResult{Err: err.Error()}
		}
	}()

	return nil
}

// Wait blocks until a redirect arrives or the timeout elapses.
func (l *Listener) Wait(ctx context.Context, timeout time.Duration) (*CallbackResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case result := <-l.resultChan:
		return result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout waiting for OAuth callback")
	}
}

// Shutdown gracefully shuts down the callback server.
func (l *Listener) Shutdown(ctx context.Context) error {
	if l.server != nil {
		return l.server.Shutdown(ctx)
	}

	return nil
}

// RedirectURI returns the URI the provider should redirect to.
func (l *Listener) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d"+CallbackPathPattern, l.port, l.provider)
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errMsg := query.Get("error"); errMsg != "" {
		l.resultChan <- &CallbackResult{Err: errMsg}
		l.renderPage(w, http.StatusBadRequest, "Authorization failed", errMsg)

		return
	}

	code := query.Get("code")
	if code == "" {
		l.resultChan <- &CallbackResult{Err: "no authorization code received"}
		l.renderPage(w, http.StatusBadRequest, "Authorization failed", "No authorization code received")

		return
	}

	l.resultChan <- &CallbackResult{Code: code, State: query.Get("state")}
	l.renderPage(w, http.StatusOK, "Authorization successful", "You can close this window and return to the terminal.")
}

func (l *Listener) renderPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 15vh">
  <h1>%s</h1>
  <p>%s</p>
</body>
</html>`, title, title, message)
}
