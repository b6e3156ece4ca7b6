package i18n

import "net/http"

// Middleware injects a localizer into every request context. lang picks the
// request language; an empty result falls back to the Accept-Language header
// and then to the bundle default.
func Middleware(lang func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := NewLocalizer(lang(r), r.Header.Get("Accept-Language"))
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
		})
	}
}
