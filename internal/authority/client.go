package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 4 << 20

// Client posts search_metadatas requests to Endpoint.
type Client struct {
	HTTP     Doer
	Endpoint string
}

// NewClient returns a Client for cfg.AuthorityEndpoint. A nil doer gets an
// *http.Client bounded by cfg.AuthorityTimeout.
func NewClient(doer Doer, cfg types.Config) *Client {
	cfg = cfg.WithDefaults()
	if doer == nil {
		doer = &http.Client{Timeout: cfg.AuthorityTimeout}
	}
	return &Client{HTTP: doer, Endpoint: cfg.AuthorityEndpoint}
}

// Search posts one filter query and returns the matching records in
// response order.
func (c *Client) Search(ctx context.Context, filters map[string]string) ([]types.MetadataRecord, error) {
	body, err := BuildSearchBody(filters)
	if err != nil {
		return nil, types.NewTransitionError(types.KindSerialization, types.ReasonSerialization, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewTransitionError(types.KindAuthorityUnavailable, types.ReasonAuthority, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, types.NewTransitionError(types.KindAuthorityUnavailable, types.ReasonAuthority, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, types.NewTransitionError(types.KindAuthorityUnavailable, types.ReasonAuthority, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.NewTransitionError(types.KindAuthorityUnavailable, types.ReasonAuthority, fmt.Errorf("status %d", resp.StatusCode))
	}

	return DecodeSearchResponse(raw)
}

// DecodeSearchResponse unwraps a search_metadatas reply.
func DecodeSearchResponse(raw []byte) ([]types.MetadataRecord, error) {
	var env Response
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformed(fmt.Errorf("decode envelope: %w", err))
	}
	if env.Error != nil {
		return nil, malformed(fmt.Errorf("rpc error %d: %s", env.Error.Code, env.Error.Message))
	}
	if env.Result == nil {
		return nil, malformed(fmt.Errorf("missing result"))
	}
	if !env.Result.Success {
		return nil, malformed(fmt.Errorf("search failed: %s", env.Result.ErrMsg))
	}
	return env.Result.Metadatas, nil
}

// FirstOwner returns the public key of the first matching record. found is
// false when the result set is empty.
func (c *Client) FirstOwner(ctx context.Context, filters map[string]string) (owner string, found bool, err error) {
	records, err := c.Search(ctx, filters)
	if err != nil {
		return "", false, err
	}
	if len(records) == 0 {
		return "", false, nil
	}
	return records[0].PublicKey, true, nil
}

func malformed(cause error) error {
	return types.NewTransitionError(types.KindAuthorityMalformedResponse, types.ReasonAuthorityReply, cause)
}
