package client

// Get/Post/Put/Patch/Delete are method-bound convenience calls over
// Call (spec §4.7: "Exposes method-bound convenience calls"), grounded
// on badu-http/cli/public.go's Get/Post/Head wrappers around
// DefaultClient.

func Get(url string, opts ...func(*Request)) (*Response, error) {
	return call(url, "GET", opts)
}

func Post(url string, content any, opts ...func(*Request)) (*Response, error) {
	return call(url, "POST", append(opts, withContent(content)))
}

func Put(url string, content any, opts ...func(*Request)) (*Response, error) {
	return call(url, "PUT", append(opts, withContent(content)))
}

func Patch(url string, content any, opts ...func(*Request)) (*Response, error) {
	return call(url, "PATCH", append(opts, withContent(content)))
}

func Delete(url string, opts ...func(*Request)) (*Response, error) {
	return call(url, "DELETE", opts)
}

func withContent(content any) func(*Request) {
	return func(r *Request) { r.Content = content }
}

func call(url, method string, opts []func(*Request)) (*Response, error) {
	req := Request{URL: url, Method: method}
	for _, opt := range opts {
		opt(&req)
	}
	return Call(req)
}
