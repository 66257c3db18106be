package gateway

import (
	"context"
	"net/http"
)

// ServiceProxy forwards a request to one backing service, preserving
// body and content type. The injected client carries the otelhttp
// transport so the hop is traced.
type ServiceProxy struct {
	baseURL string
	client  *http.Client
}

func NewServiceProxy(baseURL string, client *http.Client) *ServiceProxy {
	return &ServiceProxy{
		baseURL: baseURL,
		client:  client,
	}
}

func (p *ServiceProxy) ForwardRequest(ctx context.Context, r *http.Request, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, p.baseURL+path, r.Body)
	if err != nil {
		return nil, err
	}

	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID := r.Header.Get("X-User-ID"); userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	return p.client.Do(req)
}
