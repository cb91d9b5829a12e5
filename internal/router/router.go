// Package router assembles the gin engine: middleware chain, API routes
// and rendered pages.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ShubhamMishra2526/Travease-App/internal/domain"
	"github.com/ShubhamMishra2526/Travease-App/internal/handler"
	"github.com/ShubhamMishra2526/Travease-App/internal/middleware"
	"github.com/ShubhamMishra2526/Travease-App/internal/repository"
	"github.com/ShubhamMishra2526/Travease-App/internal/token"
	"github.com/ShubhamMishra2526/Travease-App/internal/view"
	"github.com/ShubhamMishra2526/Travease-App/pkg/telemetry"
)

// Deps carries everything the router wires together.
type Deps struct {
	Development bool
	ServiceName string

	Tokens *token.Service
	Users  repository.UserRepository

	Auth     *handler.AuthHandler
	Tours    *handler.TourHandler
	Reviews  *handler.ReviewHandler
	Accounts *handler.UserHandler
	Bookings *handler.BookingHandler
	Views    *handler.ViewHandler
	Renderer *view.Renderer

	RateLimit middleware.RateLimitConfig
}

// New builds the engine.
func New(deps Deps) *gin.Engine {
	if !deps.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler(middleware.ErrorHandlerConfig{
		Development:     deps.Development,
		RenderErrorPage: deps.Renderer.ErrorPage,
	}))
	r.Use(middleware.Recovery())
	r.Use(telemetry.TracingMiddleware(deps.ServiceName))

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Users)
	optionalAuth := middleware.OptionalAuth(deps.Tokens, deps.Users)

	// Payment provider callbacks carry their own signature and stay
	// outside the session and rate limit chain
	r.POST("/webhook-checkout", deps.Bookings.WebhookCheckout)

	api := r.Group("/api")
	api.Use(middleware.RateLimiter(deps.RateLimit))
	v1 := api.Group("/v1")

	users := v1.Group("/users")
	{
		users.POST("/signup", deps.Auth.Signup)
		users.POST("/login", deps.Auth.Login)
		users.GET("/logout", deps.Auth.Logout)
		users.POST("/forgotPassword", deps.Auth.ForgotPassword)
		users.PATCH("/resetPassword/:token", deps.Auth.ResetPassword)

		me := users.Group("")
		me.Use(requireAuth)
		{
			me.PATCH("/updateMyPassword", deps.Auth.UpdatePassword)
			me.GET("/me", deps.Accounts.GetMe)
			me.PATCH("/updateMe", deps.Accounts.UpdateMe)
			me.DELETE("/deleteMe", deps.Accounts.DeleteMe)
		}

		admin := users.Group("")
		admin.Use(requireAuth, middleware.RequireRoles(domain.RoleAdmin))
		{
			admin.GET("", deps.Accounts.Resource.GetAll)
			admin.POST("", deps.Accounts.CreateUser)
			admin.GET("/:id", deps.Accounts.Resource.GetOne)
			admin.PATCH("/:id", deps.Accounts.Resource.UpdateOne)
			admin.DELETE("/:id", deps.Accounts.Resource.DeleteOne)
		}
	}

	tours := v1.Group("/tours")
	{
		tours.GET("/top-5-cheap", deps.Tours.AliasTopTours, deps.Tours.Resource.GetAll)
		tours.GET("/tour-stats", deps.Tours.GetTourStats)
		tours.GET("/monthly-plan/:year", requireAuth,
			middleware.RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide),
			deps.Tours.GetMonthlyPlan)
		tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", deps.Tours.GetToursWithin)
		tours.GET("/distances/:latlng/:unit", deps.Tours.GetDistances)

		tours.GET("", deps.Tours.Resource.GetAll)
		tours.GET("/:id", deps.Tours.Resource.GetOne)

		manage := tours.Group("")
		manage.Use(requireAuth, middleware.RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide))
		{
			manage.POST("", deps.Tours.Resource.CreateOne)
			manage.PATCH("/:id", deps.Tours.Resource.UpdateOne)
			manage.DELETE("/:id", deps.Tours.Resource.DeleteOne)
		}

		// Nested reviews of one tour
		nested := tours.Group("/:id/reviews")
		nested.Use(requireAuth)
		{
			nested.GET("", deps.Reviews.Resource.GetAll)
			nested.POST("", middleware.RequireRoles(domain.RoleUser), deps.Reviews.Resource.CreateOne)
		}
	}

	reviews := v1.Group("/reviews")
	reviews.Use(requireAuth)
	{
		reviews.GET("", deps.Reviews.Resource.GetAll)
		reviews.POST("", middleware.RequireRoles(domain.RoleUser), deps.Reviews.Resource.CreateOne)
		reviews.GET("/:id", deps.Reviews.Resource.GetOne)
		reviews.PATCH("/:id", middleware.RequireRoles(domain.RoleUser, domain.RoleAdmin), deps.Reviews.Resource.UpdateOne)
		reviews.DELETE("/:id", middleware.RequireRoles(domain.RoleUser, domain.RoleAdmin), deps.Reviews.Resource.DeleteOne)
	}

	bookings := v1.Group("/bookings")
	bookings.Use(requireAuth)
	{
		bookings.GET("/checkout-session/:tourId", deps.Bookings.GetCheckoutSession)

		admin := bookings.Group("")
		admin.Use(middleware.RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide))
		{
			admin.GET("", deps.Bookings.Resource.GetAll)
			admin.POST("", deps.Bookings.Resource.CreateOne)
			admin.GET("/:id", deps.Bookings.Resource.GetOne)
			admin.PATCH("/:id", deps.Bookings.Resource.UpdateOne)
			admin.DELETE("/:id", deps.Bookings.Resource.DeleteOne)
		}
	}

	// Rendered pages
	r.GET("/", optionalAuth, deps.Views.Overview)
	r.GET("/tour/:slug", optionalAuth, deps.Views.Tour)
	r.GET("/login", optionalAuth, deps.Views.Login)
	r.GET("/me", requireAuth, deps.Views.Account)
	r.GET("/my-tours", requireAuth, deps.Views.MyTours)

	return r
}
