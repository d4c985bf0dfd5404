package shield

import "net/http"

// HeadToGet rewrites HEAD to GET before routing, so endpoints registered
// only for GET answer HEAD with their normal status instead of 405. The
// response body is stripped by net/http itself for HEAD.
func HeadToGet(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
