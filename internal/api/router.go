package api

import (
	"net/http"

	"github.com/example/phone-store/internal/api/middleware"
	"github.com/example/phone-store/internal/auth"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CorrelationID)

	r.Get("/health", handlers.Health)

	// Public routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.Register)
		r.Post("/login", authHandlers.Login)
		r.Post("/logout", authHandlers.Logout)
		r.With(middleware.AuthMiddleware(jwtService)).Get("/me", authHandlers.Me)
	})

	r.With(middleware.OptionalAuthMiddleware(jwtService)).Get("/products", handlers.GetProducts)
	r.Get("/products/{id}", handlers.GetProduct)
	r.Get("/categories", handlers.GetCategories)
	r.Get("/categories/{id}", handlers.GetCategory)

	// Authenticated customer routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtService))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handlers.GetCart)
			r.Post("/add", handlers.AddToCart)
			r.Put("/update/{itemId}", handlers.UpdateCartItem)
			r.Delete("/remove/{itemId}", handlers.RemoveFromCart)
			r.Delete("/clear", handlers.ClearCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handlers.PlaceOrder)
			r.Get("/", handlers.GetOrders)
			r.Get("/code/{code}", handlers.GetOrderByCode)
			r.Get("/{id}", handlers.GetOrder)
			r.Put("/{id}/cancel", handlers.CancelOrder)
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", authHandlers.GetProfile)
			r.Put("/profile", authHandlers.UpdateProfile)
			r.Put("/change-password", authHandlers.ChangePassword)
		})

		r.Route("/payment/paypal", func(r chi.Router) {
			r.Post("/create-order", handlers.CreatePayPalOrder)
			r.Post("/capture-order", handlers.CapturePayPalOrder)
		})
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtService))
		r.Use(middleware.RequireRole(auth.RoleAdmin))

		r.Get("/products", handlers.AdminListProducts)
		r.Post("/products", handlers.CreateProduct)
		r.Put("/products/{id}", handlers.UpdateProduct)
		r.Delete("/products/{id}", handlers.DeactivateProduct)
		r.Post("/products/{id}/stock", handlers.AddStock)

		r.Post("/categories", handlers.CreateCategory)
		r.Put("/categories/{id}", handlers.UpdateCategory)
		r.Delete("/categories/{id}", handlers.DeleteCategory)

		r.Get("/orders", handlers.AdminListOrders)
		r.Get("/orders/{id}", handlers.AdminGetOrder)
		r.Put("/orders/{id}/status", handlers.UpdateOrderStatus)

		r.Get("/users", authHandlers.AdminListUsers)
		r.Get("/users/{id}", authHandlers.AdminGetUser)
		r.Put("/users/{id}/status", authHandlers.AdminSetUserStatus)
		r.Delete("/users/{id}", authHandlers.AdminDeleteUser)

		r.Get("/statistics/dashboard", handlers.Dashboard)
		r.Get("/statistics/revenue", handlers.Revenue)
	})

	return r
}
