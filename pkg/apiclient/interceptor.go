package apiclient

import "context"

// Interceptor observes every response of Client.Do before it reaches the
// caller and may replace the outcome. err is nil for 2xx responses; for
// non-2xx responses resp is set and err holds an *APIError.
type Interceptor interface {
	Intercept(ctx context.Context, req *Request, resp *Response, err error) (*Response, error)
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(ctx context.Context, req *Request, resp *Response, err error) (*Response, error)

func (f InterceptorFunc) Intercept(ctx context.Context, req *Request, resp *Response, err error) (*Response, error) {
	return f(ctx, req, resp, err)
}
