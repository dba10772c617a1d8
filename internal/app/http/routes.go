package routes

import (
	adminapi "pigent-app/internal/api/admin"
	authapi "pigent-app/internal/api/auth"
	"pigent-app/internal/api/billing"
	botsapi "pigent-app/internal/api/bots"
	"pigent-app/internal/api/paystackwebhook"
	"pigent-app/internal/api/plans"
	"pigent-app/internal/api/users"
	"pigent-app/internal/app/http/middleware"
	"pigent-app/internal/domain/pricing"
	"pigent-app/internal/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs, built once in main.
type Deps struct {
	DB            *gorm.DB
	Payments      *payments.Service
	Catalog       *pricing.Catalog
	JWTSecret     string
	WebhookSecret string
	Logger        *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	authH := authapi.New(d.DB, d.JWTSecret, d.Logger)
	billingH := billing.New(d.Payments)
	webhookH := paystackwebhook.New(d.Payments.Ledger(), d.WebhookSecret, d.Logger)
	botsH := botsapi.New(d.DB)
	adminH := adminapi.New(d.DB, d.Payments.Ledger(), d.Logger)

	// Signed by Paystack, never sanitized: the signature covers the raw body.
	r.POST("/payments/webhook", webhookH.PaystackWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/plans", plans.New(d.Catalog).ListPlans)
	r.GET("/bots/:reference/questions", botsH.ListQuestions)
	r.GET("/reviews", botsH.ListReviews)

	// ✅ Apply input sanitization to public routes only
	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.POST("/register", authH.Register)
	public.POST("/login", authH.Login)
	public.POST("/bots/:reference/answer", botsH.Answer)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.JWTSecret))
	auth.GET("/me", users.New(d.DB).GetCurrentUser)
	auth.POST("/change-password", authH.ChangePassword)

	auth.POST("/payments/init", billingH.InitPayment)
	auth.GET("/payments/verify/:reference", billingH.VerifyPayment)
	auth.POST("/payments/force-link-bot/:reference", billingH.ForceLinkBot)
	auth.GET("/payments", billingH.GetPaymentHistory)
	auth.GET("/payments/receipt/:reference", billingH.GetReceipt)

	auth.GET("/bots", botsH.ListMyBots)
	auth.POST("/reviews", botsH.CreateReview)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireRole("admin"))
	admin.GET("/dashboard", adminH.GetAdminStats)
	admin.GET("/users", adminH.ListAllUsers)
	admin.GET("/user/:id", adminH.GetUserDetails)
	admin.GET("/payments", adminH.ListAllPayments)
	admin.PATCH("/bots/:reference/status", adminH.UpdateBotStatus)
	admin.POST("/bots/:reference/questions", botsH.AddQuestion)
}
