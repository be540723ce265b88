package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskd/internal/models"
)

// Resolver looks up display identities in the external user service.
type Resolver struct {
	baseURL string
	client  *http.Client
}

// NewResolver builds a resolver for the user service at baseURL.
func NewResolver(baseURL string, client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type userDocument struct {
	ID          string `json:"_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Resolve fetches the user by id and returns its display identity. The
// display name falls back to the email when none is set upstream.
func (r *Resolver) Resolve(ctx context.Context, userID string) (models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+url.PathEscape(userID), nil)
	if err != nil {
		return models.Identity{}, fmt.Errorf("build user request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return models.Identity{}, models.UpstreamFailuref("user service unreachable: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return models.Identity{}, models.NotFoundf("user %s not found", userID)
	default:
		return models.Identity{}, models.UpstreamFailuref("user service returned %d for %s", resp.StatusCode, userID)
	}

	var doc userDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return models.Identity{}, models.UpstreamFailuref("decode user document: %v", err)
	}

	name := doc.DisplayName
	if name == "" {
		name = doc.Email
	}
	return models.Identity{ID: doc.ID, DisplayName: name}, nil
}
