package postactions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// HTTPPostAction delivers the post-transfer summary to a remote webhook.
// Any non-2xx answer fails the hook, which in turn aborts the whole
// payment, so receivers must acknowledge only after they are done.
type HTTPPostAction struct {
	url    string
	client *http.Client
}

func NewHTTPPostAction(url string) *HTTPPostAction {
	return &HTTPPostAction{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (a *HTTPPostAction) Execute(ctx context.Context, ledger domain.Ledger, data *domain.PostActionData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal post-action payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call post-action hook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post-action hook returned status: %d", resp.StatusCode)
	}
	return nil
}

// RouteResolver maps registered hook addresses to webhook URLs from
// service config.
type RouteResolver struct {
	routes map[string]string
}

func NewRouteResolver(routes map[string]string) *RouteResolver {
	return &RouteResolver{routes: routes}
}

func (r *RouteResolver) Resolve(address string) (domain.PostAction, error) {
	url, ok := r.routes[address]
	if !ok {
		return nil, domain.Errorf(domain.KindInvalidState, "no route configured for post-action address %s", address)
	}
	return NewHTTPPostAction(url), nil
}
