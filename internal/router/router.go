package router

import (
	"time"

	"jobmarket/config"
	"jobmarket/internal/domain"
	"jobmarket/internal/handler"
	"jobmarket/internal/middleware"
	"jobmarket/internal/repository"
	"jobmarket/internal/service"
	"jobmarket/internal/ws"
	"jobmarket/pkg/cloudinary"
	"jobmarket/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the external clients the router wires into services. Mailer and
// Pusher may be nil.
type Deps struct {
	Cloud   cloudinary.Client
	Gateway payment.Gateway
	Mailer  service.Mailer
	Pusher  service.Pusher
	Hub     *ws.Hub
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	store := repository.NewStore(db)

	// Services
	notifSvc := service.NewNotificationService(store.Notifications, store.Users, deps.Hub, deps.Pusher)
	commissionSvc := service.NewCommissionService(store.Settings, cfg.Platform.DefaultCommissionPercentage)
	authSvc := service.NewAuthService(cfg, store.Users, deps.Mailer)
	offerSvc := service.NewOfferService(store, notifSvc, deps.Cloud)
	paymentSvc := service.NewPaymentService(store, deps.Gateway, commissionSvc, notifSvc, deps.Mailer, cfg)
	orderSvc := service.NewOrderService(store, deps.Gateway, commissionSvc, notifSvc, deps.Cloud, cfg.Stripe)
	postSvc := service.NewPostService(store, deps.Cloud)
	catalogSvc := service.NewCatalogService(store, deps.Hub, deps.Cloud)
	verificationSvc := service.NewVerificationService(store, notifSvc, deps.Cloud)
	adminSvc := service.NewAdminService(store, commissionSvc)
	profileSvc := service.NewProfileService(store, notifSvc, deps.Cloud)
	supportSvc := service.NewSupportService(store, notifSvc, deps.Cloud)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	meHandler := handler.NewMeHandler(authSvc, notifSvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	postHandler := handler.NewPostHandler(postSvc)
	favoriteHandler := handler.NewFavoriteHandler(postSvc)
	offerHandler := handler.NewOfferHandler(offerSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	paymentWebhookHandler := handler.NewPaymentWebhookHandler(paymentSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc)
	adminHandler := handler.NewAdminHandler(adminSvc, authSvc)
	uploadHandler := handler.NewUploadHandler(deps.Cloud, cfg.Cloudinary.Folder)
	profileHandler := handler.NewProfileHandler(profileSvc)
	supportHandler := handler.NewSupportHandler(supportSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	activeMw := middleware.ActiveAccount(store.Users)
	// Money-moving and lifecycle endpoints get a tighter per-user budget.
	lifecycleMw := middleware.UserRateLimit(middleware.NewInMemoryRateLimiter(30, 60*time.Second))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/verify-otp", authHandler.VerifyResetCode)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
		}

		api.GET("/categories", catalogHandler.Categories)
		api.GET("/announcements", catalogHandler.Announcements)
		api.GET("/posts/:id", postHandler.Get)
		api.GET("/pages/:name", catalogHandler.Page)

		// Processor callbacks carry no bearer token.
		api.POST("/payments/webhook", paymentWebhookHandler.Handle)
		api.GET("/payments/success", paymentHandler.Success)
		api.GET("/payments/connect/return/:account", paymentHandler.ConnectReturn)
		api.GET("/payments/connect/refresh/:account", paymentHandler.ConnectRefresh)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.PATCH("/profile", profileHandler.Update)
			me.DELETE("", profileHandler.Delete)
			me.POST("/device-token", meHandler.RegisterDeviceToken)
			me.GET("/notifications", notificationHandler.List)
			me.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			me.PATCH("/notifications/read", notificationHandler.MarkRead)
			me.DELETE("/notifications", notificationHandler.Delete)
		}

		user := api.Group("")
		user.Use(authMw, activeMw)
		{
			user.POST("/uploads/images/:folder", uploadHandler.UploadImage)
			user.POST("/uploads/files/:folder", uploadHandler.UploadFile)

			user.POST("/posts", postHandler.Create)
			user.GET("/posts/mine", postHandler.Mine)
			user.PATCH("/posts/:id", postHandler.Update)
			user.DELETE("/posts/:id", postHandler.Delete)
			user.GET("/posts/:id/offers", postHandler.Offers)
			user.POST("/posts/:id/offers", lifecycleMw, offerHandler.OfferOnPost)

			user.GET("/favourites", favoriteHandler.List)
			user.POST("/favourites/posts/:id", favoriteHandler.AddPost)
			user.DELETE("/favourites/posts/:id", favoriteHandler.RemovePost)
			user.POST("/favourites/providers/:id", favoriteHandler.AddProvider)
			user.DELETE("/favourites/providers/:id", favoriteHandler.RemoveProvider)

			user.GET("/offers/received", offerHandler.Received)
			user.GET("/offers/sent", offerHandler.Sent)
			user.GET("/offers/:id", offerHandler.Get)
			user.POST("/offers", lifecycleMw, offerHandler.Propose)
			user.PATCH("/offers/:id", lifecycleMw, offerHandler.Revise)
			user.POST("/offers/:id/counter", lifecycleMw, offerHandler.Counter)
			user.POST("/offers/:id/respond", lifecycleMw, offerHandler.Respond)
			user.DELETE("/offers/:id", lifecycleMw, offerHandler.Delete)

			user.POST("/payments/checkout", lifecycleMw, paymentHandler.Checkout)
			user.POST("/payments/connect", middleware.RequireRole(domain.RoleServiceProvider), paymentHandler.Connect)
			user.GET("/payments/records", paymentHandler.Records)

			user.GET("/orders", orderHandler.List)
			user.GET("/orders/:id", orderHandler.Get)
			user.DELETE("/orders/:id", lifecycleMw, orderHandler.Delete)
			user.POST("/orders/:id/delivery", lifecycleMw, orderHandler.SubmitDelivery)
			user.POST("/orders/:id/time-extension", lifecycleMw, orderHandler.RequestTimeExtension)
			user.GET("/orders/:id/delivery-requests", orderHandler.DeliveryRequests)
			user.GET("/time-extensions", orderHandler.TimeExtensions)
			user.POST("/delivery-requests/:id/action", lifecycleMw, orderHandler.ActOnDelivery)
			user.POST("/time-extensions/:id/action", lifecycleMw, orderHandler.ActOnTimeExtension)

			user.POST("/orders/:id/rating", profileHandler.Rate)

			user.GET("/providers/:id", profileHandler.Provider)
			user.GET("/providers/:id/ratings", profileHandler.ProviderRatings)
			user.GET("/search/posts", postHandler.Search)
			user.GET("/search/providers", profileHandler.SearchProviders)

			user.GET("/support", supportHandler.Mine)
			user.POST("/support", supportHandler.Open)

			user.POST("/verification", middleware.RequireRole(domain.RoleServiceProvider), verificationHandler.Submit)
		}

		api.POST("/admin/login", adminHandler.AdminLogin)
		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired(), activeMw)
		{
			admin.GET("/overview", adminHandler.Overview)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id/status", adminHandler.SetUserStatus)
			admin.GET("/commission", adminHandler.GetCommission)
			admin.PUT("/commission", adminHandler.UpdateCommission)
			admin.GET("/payments", adminHandler.ListPayments)

			admin.GET("/admins", adminHandler.ListAdmins)
			admin.POST("/admins", middleware.SuperAdminRequired(), adminHandler.AddAdmin)
			admin.DELETE("/admins/:id", middleware.SuperAdminRequired(), adminHandler.DeleteAdmin)

			admin.POST("/categories", catalogHandler.CreateCategory)
			admin.PATCH("/categories/:id", catalogHandler.UpdateCategory)
			admin.DELETE("/categories/:id", catalogHandler.DeleteCategory)
			admin.POST("/categories/:id/sub-categories", catalogHandler.AddSubCategory)
			admin.PATCH("/sub-categories/:id", catalogHandler.RenameSubCategory)
			admin.DELETE("/sub-categories/:id", catalogHandler.DeleteSubCategory)

			admin.GET("/announcements", catalogHandler.AllAnnouncements)
			admin.POST("/announcements", catalogHandler.CreateAnnouncement)
			admin.PATCH("/announcements/:id", catalogHandler.UpdateAnnouncement)
			admin.PATCH("/announcements/:id/status", catalogHandler.SetAnnouncementStatus)
			admin.DELETE("/announcements/:id", catalogHandler.DeleteAnnouncement)

			admin.PUT("/pages/:name", catalogHandler.UpdatePage)

			admin.GET("/support", supportHandler.List)
			admin.POST("/support/:id/reply", supportHandler.Reply)

			admin.GET("/verifications", verificationHandler.List)
			admin.GET("/verifications/:id", verificationHandler.Get)
			admin.POST("/verifications/:id/review", verificationHandler.Review)
		}
	}

	r.GET("/ws/notifications", ws.UpgradeNotificationsWS(&cfg.JWT, deps.Hub))

	return r
}
