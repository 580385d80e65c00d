package api

import (
	"log/slog"
	"net/http"

	"github.com/lakonic/taskdeck/auth"
	"github.com/lakonic/taskdeck/session"
	"github.com/lakonic/taskdeck/webutil"
)

// ResolveOwner loads the browser session, resolves the request's owner
// (minting a guest token on first contact), persists any session
// change, and stores the owner in the request context. This is the
// uniform guard in front of every owner-scoped route.
func ResolveOwner(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Get(r)
			owner := auth.ResolveOwner(sess)

			// Save is a no-op unless resolution minted a token. The
			// cookie must go out before any handler writes a body.
			if err := sess.Save(r, w); err != nil {
				slog.Error("Failed to persist session", "path", r.URL.Path, "method", r.Method, "error", err)
				webutil.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), owner)))
		})
	}
}
