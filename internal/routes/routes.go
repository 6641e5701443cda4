package routes

import (
	"net/http"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/app"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/handler"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.UserService, app.ReplitOAuth, app.FirebaseAuth, app.Cfg)
	goal := handler.NewGoalHandler(app.GoalService, app.ExportService)
	transcription := handler.NewTranscriptionHandler(app.TranscriptionService, app.ExportService, app.EmailService)
	activity := handler.NewActivityHandler(app.ActivityService, app.GoalService)
	tracking := handler.NewTrackingHandler(app.TrackingService)
	quote := handler.NewQuoteHandler(app.QuoteService)
	file := handler.NewFileHandler(app.FileService, app.Cfg.MaxUploadSize)
	search := handler.NewSearchHandler(app.SearchService)
	billing := handler.NewBillingHandler(app.SubscriptionService, app.PaymentService)
	health := handler.NewHealthHandler(app.DB, app.Redis)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// ============================================================================
	// AUTH
	// ============================================================================

	// Credential endpoints share one limiter keyed by client IP
	rateLimiter := middleware.RateLimit(middleware.NewAuthLimiter(app.Redis), "auth")

	mux.HandleFunc("POST /api/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/csrf", auth.CSRF)

	// Replit OIDC
	mux.HandleFunc("GET /api/login", rateLimiter(auth.ReplitLogin))
	mux.HandleFunc("GET /api/login/replit", rateLimiter(auth.ReplitLogin))
	mux.HandleFunc("GET /api/auth/replit", rateLimiter(auth.ReplitLogin))
	mux.HandleFunc("GET /api/callback", rateLimiter(auth.ReplitCallback))
	mux.HandleFunc("GET /api/auth/replit/callback", rateLimiter(auth.ReplitCallback))

	// Firebase
	mux.HandleFunc("POST /api/auth/firebase/login", rateLimiter(auth.FirebaseLogin))
	mux.HandleFunc("POST /api/auth/firebase/register", rateLimiter(auth.FirebaseRegister))

	// Account
	mux.HandleFunc("GET /api/user", middleware.RequireAuth(auth.CurrentUser))
	mux.HandleFunc("PATCH /api/user", middleware.RequireAuth(auth.UpdateUser))
	mux.HandleFunc("POST /api/user/password", rateLimiter(middleware.RequireAuth(auth.ChangePassword)))

	// ============================================================================
	// GOALS
	// ============================================================================

	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("GET /api/goals/tree", middleware.RequireAuth(goal.Tree))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("PATCH /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("PUT /api/goals/{id}/content", middleware.RequireAuth(goal.UpdateContent))
	mux.HandleFunc("DELETE /api/goals/{id}", middleware.RequireAuth(goal.Delete))
	mux.HandleFunc("GET /api/goals/{id}/transcriptions", middleware.RequireAuth(goal.Transcriptions))
	mux.HandleFunc("GET /api/goals/{id}/export", middleware.RequireAuth(goal.Export))

	// ============================================================================
	// TRANSCRIPTIONS
	// ============================================================================

	mux.HandleFunc("GET /api/transcriptions", middleware.RequireAuth(transcription.List))
	mux.HandleFunc("POST /api/transcriptions", middleware.RequireAuth(transcription.Create))
	mux.HandleFunc("GET /api/transcriptions/export", middleware.RequireAuth(transcription.ExportBulk))
	mux.HandleFunc("GET /api/transcriptions/{id}", middleware.RequireAuth(transcription.Get))
	mux.HandleFunc("PATCH /api/transcriptions/{id}", middleware.RequireAuth(transcription.Update))
	mux.HandleFunc("DELETE /api/transcriptions/{id}", middleware.RequireAuth(transcription.Delete))
	mux.HandleFunc("GET /api/transcriptions/{id}/export", middleware.RequireAuth(transcription.Export))
	mux.HandleFunc("POST /api/transcriptions/{id}/export/email", middleware.RequireAuth(transcription.ExportEmail))

	// ============================================================================
	// ACTIVITY & TRACKING
	// ============================================================================

	mux.HandleFunc("GET /api/user-activity", middleware.RequireAuth(activity.List))
	mux.HandleFunc("POST /api/user-activity", middleware.RequireAuth(activity.Create))
	mux.HandleFunc("GET /api/user-activity/summary", middleware.RequireAuth(activity.Summary))

	mux.HandleFunc("POST /api/project-tracking", middleware.RequireAuth(tracking.Record))
	mux.HandleFunc("GET /api/project-tracking", middleware.RequireAuth(tracking.List))
	mux.HandleFunc("GET /api/project-tracking/summary", middleware.RequireAuth(tracking.Summary))

	// ============================================================================
	// QUOTES & SEARCH
	// ============================================================================

	mux.HandleFunc("GET /api/quotes", quote.List)
	mux.HandleFunc("GET /api/quotes/random", quote.Random)
	mux.HandleFunc("GET /api/quotes/daily", quote.Daily)

	mux.HandleFunc("GET /api/search", middleware.RequireAuth(search.Search))

	// ============================================================================
	// FILES
	// ============================================================================

	mux.HandleFunc("POST /api/upload", middleware.RequireAuth(file.Upload))
	mux.HandleFunc("GET /api/files", middleware.RequireAuth(file.List))
	mux.HandleFunc("DELETE /api/files/{id}", middleware.RequireAuth(file.Delete))
	// Public files are readable by anyone, private ones only by their owner
	mux.HandleFunc("GET /uploads/{filename}", file.Serve)

	// ============================================================================
	// BILLING
	// ============================================================================

	mux.HandleFunc("GET /api/billing/subscription", middleware.RequireAuth(billing.Subscription))
	mux.HandleFunc("POST /api/billing/checkout", middleware.RequireAuth(billing.CreateCheckout))
	mux.HandleFunc("GET /api/billing/portal", middleware.RequireAuth(billing.CustomerPortal))

	// Payment provider webhooks (exempt from CSRF, verified by signature)
	mux.HandleFunc("POST /api/webhooks/paypal", billing.Webhook)
	mux.HandleFunc("POST /api/webhooks/payment", billing.Webhook)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	const catchAll = "/api/{path...}"
	mux.HandleFunc(catchAll, handler.Fallback(mux, catchAll))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Metrics(mux), // Route label comes from the mux pattern
		middleware.CORS(app.Cfg.CORSOrigins),
		middleware.Config(app.Cfg),
		middleware.CSRFProtection, // Double-submit check for state-changing requests
		middleware.Authenticate(app.AuthService, app.UserService),
	)
}
