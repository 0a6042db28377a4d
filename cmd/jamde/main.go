package main

import (
	"crypto/sha256"
	"encoding/base64"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"jamde/internal/config"
	"jamde/internal/http/handlers"
	applog "jamde/internal/log"
	"jamde/internal/metrics"
	"jamde/internal/payments"
	"jamde/internal/repos"
	"jamde/internal/services"
)

func paymentRegistry(cfg config.Config) *payments.Registry {
	var ps []payments.Provider
	if cfg.ProviderEnabled("stripe") {
		ps = append(ps, payments.NewStripe(cfg.StripeSecretKey, cfg.AppURL, cfg.StripeCurrency))
	}
	if cfg.ProviderEnabled("flutterwave") {
		ps = append(ps, payments.NewFlutterwave(cfg.FlwBaseURL, cfg.FlwSecretKey, cfg.AppURL, cfg.FlwCurrency))
	}
	return payments.NewRegistry(cfg.PaymentDefault, ps...)
}

// cookieKey derives the 32-byte encryptcookie key from SESSION_SECRET.
func cookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func main() {
	log := applog.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	applog.SetLevel(cfg.LogLevel)

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Warnf("could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
			applog.SetOutput(out)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	providers := paymentRegistry(cfg)
	log.Infof("[payments] %s", providers)

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	deps := handlers.NewDeps(db, cfg, authSvc, providers, log)

	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	secure := strings.HasPrefix(cfg.AppURL, "https://")

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlog.New(fiberlog.Config{Output: out}))
	app.Use(helmet.New())
	app.Use(metrics.Middleware())
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key:    cookieKey(cfg.SessionSecret),
		Except: []string{"csrf_"},
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/") ||
				p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   secure,
		ContextKey:     "csrf",
		Expiration:     2 * time.Hour,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Security check failed. Please refresh and try again."})
		},
	}))

	// ---------- Static assets ----------
	log.Infof("[static] /static -> ./web/static")
	log.Infof("[static] /media  -> %s", cfg.MediaDir)
	app.Static("/static", "./web/static")
	app.Get("/media/*", handlers.Media(cfg.MediaDir))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			applog.Error(c, "healthz.db", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", metrics.Handler())

	// ---------- App handlers ----------
	deps.Mount(app)
	app.Use(handlers.NotFound)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("shutdown signal received")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
