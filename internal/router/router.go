package router

import (
	"net/http"

	"coursepass/internal/handler"
	"coursepass/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	redemptionHandler *handler.RedemptionHandler,
	codeHandler *handler.CodeHandler,
	adminAPIKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Register redemption routes (both with and without trailing slash)
	mux.HandleFunc("/api/redemptions", redemptionHandler.Redeem)
	mux.HandleFunc("/api/redemptions/", redemptionHandler.Redeem)

	// Register admin code-generation routes
	mux.HandleFunc("/api/access-codes", codeHandler.Generate)
	mux.HandleFunc("/api/access-codes/", codeHandler.Generate)

	// Apply middleware in order: Recovery -> Logging -> CORS -> AdminKeyAuth
	var h http.Handler = mux
	h = middleware.AdminKeyAuth(adminAPIKey, "/api/access-codes", logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
