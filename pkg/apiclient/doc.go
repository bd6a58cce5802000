// Package apiclient is a small JSON client for the remote session API.
//
// A Client owns a Headers value, the explicit session context holding the
// bearer token and static default headers. Every request snapshots it at send
// time, so a token installed with Headers().SetBearer is picked up by the
// next call. The token may be seeded once at construction with WithTokenFrom.
//
// Do sends a request and then passes the outcome, success or failure, through
// a single Interceptor installed with Use. Send performs the same round trip
// without interception and is meant for refresh calls and replays.
//
// # Usage
//
//	client, err := apiclient.New("https://api.example.com",
//	    apiclient.WithTokenFrom(jar, "nextauth.token"),
//	    apiclient.WithLogger(log),
//	)
//	if err != nil { return err }
//
//	client.Use(apiclient.InterceptorFunc(func(ctx context.Context, req *apiclient.Request, resp *apiclient.Response, err error) (*apiclient.Response, error) {
//	    return resp, err
//	}))
//
//	resp, err := client.Get(ctx, "/me")
//	var me struct{ Email string `json:"email"` }
//	if err == nil { err = resp.Decode(&me) }
//
// # Error Handling
//
// Non-2xx responses return the response together with an *APIError carrying
// the status and the "code" field of the body. Use AsAPIError, StatusOf or
// IsUnauthorized to inspect it. Network failures wrap ErrTransport; JSON
// failures wrap ErrEncodeBody or ErrDecodeBody.
package apiclient
