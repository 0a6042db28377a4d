package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"jamde/internal/cart"
	"jamde/internal/config"
	applog "jamde/internal/log"
	"jamde/internal/payments"
	"jamde/internal/repos"
	"jamde/internal/services"
)

// Limits are the per-route throttles. A nil handler means unthrottled.
type Limits struct {
	Login        fiber.Handler
	OrderCreate  fiber.Handler
	Availability fiber.Handler
}

func throttle(limit int, window time.Duration, key, action string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + key
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, action, nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
}

func DefaultLimits() Limits {
	return Limits{
		Login:        throttle(5, 10*time.Minute, "login", "rate.login.hit"),
		OrderCreate:  throttle(10, time.Minute, "order", "rate.order.hit"),
		Availability: throttle(15, 30*time.Second, "avail", "rate.availability.hit"),
	}
}

type Deps struct {
	Auth   *services.AuthService
	Limits Limits

	AuthHandler         *AuthHandler
	CategoryHandler     *CategoryHandler
	ProductHandler      *ProductHandler
	InventoryHandler    *InventoryHandler
	CartHandler         *CartHandler
	OrderHandler        *OrderHandler
	AccountHandler      *AccountHandler
	WishlistHandler     *WishlistHandler
	SellerHandler       *SellerHandler
	AdminHandler        *AdminHandler
	AdminCatalogHandler *AdminCatalogHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, providers *payments.Registry, logger logrus.FieldLogger) *Deps {
	if logger == nil {
		logger = applog.Logger()
	}
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	userRepo := auth.Users
	wishRepo := repos.NewWishlistRepo(db)
	reviewRepo := repos.NewReviewRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo, reviewRepo)
	invSvc := services.NewInventoryService(invRepo, cfg.LowStockThreshold)
	cartSvc := services.NewCartService(cartRepo, prodRepo, func(owner string, s cart.Snapshot) {
		if len(s.Items) == 0 {
			logger.WithField("sid", owner).Debug("cart.cleared")
		}
	})
	orderSvc := services.NewOrderService(db, prodRepo, userRepo, orderRepo, invRepo, cfg.TaxRate, cfg.ShippingFlat, logger)
	paySvc := services.NewPaymentService(orderRepo, providers, logger)
	acctSvc := &services.AccountService{Users: userRepo, Orders: orderRepo, Addresses: repos.NewAddressRepo(db)}

	return &Deps{
		Auth:   auth,
		Limits: DefaultLimits(),

		AuthHandler:      &AuthHandler{Auth: auth, Carts: cartRepo},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Reviews: services.NewReviewService(reviewRepo, prodRepo)},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Cart: cartSvc, Order: orderSvc, Payments: paySvc},
		AccountHandler:   &AccountHandler{Account: acctSvc},
		WishlistHandler:  &WishlistHandler{Wish: services.NewWishlistService(wishRepo, prodRepo)},
		SellerHandler:    &SellerHandler{Sellers: services.NewSellerService(repos.NewSellerRepo(db))},
		AdminHandler: &AdminHandler{
			Admin:     services.NewAdminService(orderRepo, userRepo, logger),
			Dashboard: &services.DashboardService{Orders: orderRepo, Users: userRepo, Inv: invSvc},
		},
		AdminCatalogHandler: &AdminCatalogHandler{Catalog: catalogSvc},
	}
}

func orPass(h fiber.Handler) fiber.Handler {
	if h == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return h
}

// Mount registers the storefront, account and admin routes on r.
func (d *Deps) Mount(r fiber.Router) {
	r.Use(Authenticate(d.Auth))

	// Catalog
	r.Get("/products", d.ProductHandler.List)
	r.Get("/products/:slug", d.ProductHandler.Detail)
	r.Get("/products/:slug/reviews", d.ProductHandler.ListReviews)
	r.Post("/products/:slug/reviews", d.ProductHandler.AddReview)
	r.Get("/categories", d.CategoryHandler.List)

	api := r.Group("/api/v1")
	api.Get("/availability", orPass(d.Limits.Availability), d.InventoryHandler.Check)

	// Cart & checkout
	r.Get("/cart", d.CartHandler.View)
	r.Post("/cart/items", d.CartHandler.Add)
	r.Patch("/cart/items/:productId", d.CartHandler.Update)
	r.Delete("/cart/items/:productId", d.CartHandler.Remove)
	r.Delete("/cart", d.CartHandler.Clear)
	r.Post("/orders/create", orPass(d.Limits.OrderCreate), d.OrderHandler.Create)
	r.Post("/payments/:provider/checkout", orPass(d.Limits.OrderCreate), d.OrderHandler.Checkout)
	r.Get("/checkout/success", d.OrderHandler.Success)
	r.Get("/checkout/cancel", d.OrderHandler.Cancel)

	r.Post("/seller-applications", d.SellerHandler.Apply)

	// Auth
	r.Get("/login", d.AuthHandler.LoginForm)
	r.Post("/login", orPass(d.Limits.Login), d.AuthHandler.Login)
	r.Post("/signup", orPass(d.Limits.Login), d.AuthHandler.Signup)
	r.Post("/logout", d.AuthHandler.Logout)

	// Account
	acct := r.Group("/account", RequireUser())
	acct.Get("/", d.AccountHandler.Summary)
	acct.Get("/profile", d.AccountHandler.Profile)
	acct.Post("/profile", d.AccountHandler.UpdateProfile)
	acct.Get("/orders", d.AccountHandler.Orders)
	acct.Get("/orders/:id", d.AccountHandler.Order)
	acct.Get("/addresses", d.AccountHandler.Addresses)
	acct.Post("/addresses", d.AccountHandler.AddAddress)
	acct.Delete("/addresses/:id", d.AccountHandler.DeleteAddress)
	acct.Post("/addresses/:id/default", d.AccountHandler.SetDefaultAddress)
	acct.Get("/wishlist", d.WishlistHandler.List)
	acct.Post("/wishlist", d.WishlistHandler.Save)
	acct.Delete("/wishlist/:productId", d.WishlistHandler.Unsave)

	// Admin
	admin := r.Group("/admin", RequireAdmin())
	admin.Get("/", d.AdminHandler.Home)
	admin.Get("/orders", d.AdminHandler.Orders)
	admin.Get("/orders/:id", d.AdminHandler.Order)
	admin.Post("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Post("/orders/:id/payment-status", d.AdminHandler.UpdatePaymentStatus)
	admin.Post("/orders/:id/refund", d.AdminHandler.Refund)

	admin.Get("/products", d.AdminCatalogHandler.Products)
	admin.Post("/products", d.AdminCatalogHandler.Create)
	admin.Post("/products/delete", d.AdminCatalogHandler.BulkDelete)
	admin.Post("/products/active", d.AdminCatalogHandler.BulkActive)
	admin.Get("/products/:id", d.AdminCatalogHandler.Product)
	admin.Post("/products/:id", d.AdminCatalogHandler.Update)
	admin.Post("/products/:id/delete", d.AdminCatalogHandler.Delete)
	admin.Post("/products/:id/stock", d.InventoryHandler.SetStock)
	admin.Get("/inventory/low", d.InventoryHandler.LowStock)
	admin.Post("/categories", d.AdminCatalogHandler.CreateCategory)

	admin.Get("/users", d.AdminHandler.Users)
	admin.Get("/users/:id", d.AdminHandler.User)
	admin.Post("/users/:id/role", d.AdminHandler.ChangeRole)
	admin.Post("/users/:id/delete", d.AdminHandler.DeleteUser)

	admin.Get("/seller-applications", d.SellerHandler.List)
	admin.Get("/seller-applications/:id", d.SellerHandler.Detail)
	admin.Post("/seller-applications/:id/status", d.SellerHandler.SetStatus)
}
