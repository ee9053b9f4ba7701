package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// ExchangeFunc trades an approved request token for an account access token.
type ExchangeFunc func(ctx context.Context, requestToken string) (*oauth2.Token, error)

// ApprovalResult contains the outcome of a catalog account approval.
type ApprovalResult struct {
	Token *oauth2.Token
	err   error
}

func (a *ApprovalResult) Error() error {
	return a.err
}

// ApprovalHandler receives the browser redirect after the user approves a request token.
//
// The catalog redirects to /approved?request_token=...&approved=true. Only the
// request token issued for this flow is accepted, and only the first callback
// is processed.
type ApprovalHandler struct {
	requestToken string
	exchange     ExchangeFunc
	resultChan   chan ApprovalResult
	once         sync.Once
	callbackHit  bool
	mu           sync.Mutex
}

// NewApprovalHandler creates a handler for requestToken that calls exchange on approval.
func NewApprovalHandler(requestToken string, exchange ExchangeFunc) *ApprovalHandler {
	return &ApprovalHandler{
		requestToken: requestToken,
		exchange:     exchange,
		resultChan:   make(chan ApprovalResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ApprovalHandler) Routes() []string {
	return []string{"/approved"}
}

// ServeHTTP handles the approval redirect.
func (h *ApprovalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("request_token") != h.requestToken {
		h.Send(ApprovalResult{err: fmt.Errorf("unexpected request token")})
		http.Error(w, "Unexpected request token", http.StatusBadRequest)
		return
	}

	if q.Get("denied") == "true" || q.Get("approved") == "false" {
		h.Send(ApprovalResult{err: fmt.Errorf("access was denied")})
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	token, err := h.exchange(r.Context(), h.requestToken)
	if err != nil {
		h.Send(ApprovalResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(ApprovalResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, approvedPage)
}

// Send delivers the result (only once).
func (h *ApprovalHandler) Send(result ApprovalResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel that receives exactly one result and is then closed.
func (h *ApprovalHandler) Result() <-chan ApprovalResult {
	return h.resultChan
}

const approvedPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Account Linked</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #0d253f; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #01b4e4; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Account Linked</h1>
        <p>Your lists can now be published. Return to the terminal.</p>
    </div>
</body>
</html>
`
