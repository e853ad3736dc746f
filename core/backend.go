package core

import (
	"context"
	"net/url"
)

type (
	// Backend is the read side of the external ticketing REST API.
	// Failures follow the same taxonomy as submissions: *ConnectivityError or *ServerError.
	Backend interface {
		// Get decodes the JSON body of GET path into out.
		Get(ctx context.Context, path string, query url.Values, out interface{}) error
		// Post sends body as JSON and decodes the response into out (out may be nil).
		Post(ctx context.Context, path string, body, out interface{}) error
	}

	// Record is a backend entity as decoded from JSON.
	Record = map[string]interface{}
)
