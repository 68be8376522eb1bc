package bitmex

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/profitviews/crypto-stock/internal/infra"
	"github.com/profitviews/crypto-stock/internal/venue"
)

// DefaultRestURL is the public REST API root.
const DefaultRestURL = "https://www.bitmex.com/api/v1"

// RESTCaller answers the endpoint capability over plain REST. It covers the
// public surface the adapter needs; private endpoints belong to whichever
// host platform supplies its own caller.
type RESTCaller struct {
	baseURL string
	rest    *infra.RESTClient
}

// NewRESTCaller creates a caller against the given API root, or the public
// one when empty.
func NewRESTCaller(baseURL string) *RESTCaller {
	if baseURL == "" {
		baseURL = DefaultRestURL
	}
	return &RESTCaller{
		baseURL: baseURL,
		rest:    infra.NewRESTClient(Name, 0),
	}
}

// CallEndpoint performs one GET against the REST API. The response body
// comes back wrapped in the {"data": ...} envelope the adapter expects.
func (c *RESTCaller) CallEndpoint(ctx context.Context, venueName, endpoint, access, method string, params map[string]string) (json.RawMessage, error) {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	var body json.RawMessage
	if err := c.rest.GetJSON(ctx, c.baseURL+"/"+endpoint, values, nil, &body); err != nil {
		return nil, err
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{Data: body}
	return json.Marshal(envelope)
}

var _ venue.EndpointCaller = (*RESTCaller)(nil)
