package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/sgpfreelancing/platform_be/internal/config"
	"github.com/sgpfreelancing/platform_be/internal/db"
	"github.com/sgpfreelancing/platform_be/internal/handlers"
	"github.com/sgpfreelancing/platform_be/internal/middleware"
	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/realtime"
	"github.com/sgpfreelancing/platform_be/internal/services/lifecycle"
	"github.com/sgpfreelancing/platform_be/internal/services/mailer"
	"github.com/sgpfreelancing/platform_be/internal/services/otp"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.OtpRecord{},
		&models.Category{},
		&models.Project{},
		&models.Bid{},
		&models.Contract{},
		&models.PaymentTransaction{},
		&models.Review{},
		&models.Portfolio{},
		&models.PortfolioCase{},
		&models.Message{},
	); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("redis unavailable, notifications disabled:", err)
		rdb = nil
	}

	hub := realtime.NewHub()
	go hub.Run()

	st := store.NewGorm(gdb)

	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Println("SMTP not configured, logging verification codes instead")
		sender = mailer.Log{}
	}

	otpSvc := otp.NewService(st)
	lifecycleSvc := lifecycle.NewService(st)

	authH := handlers.NewAuthHandler(st, otpSvc, sender, cfg.JWTSecret, cfg.JWTExpiresMin)
	googleH := &handlers.GoogleOAuthHandler{
		Store:           st,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	categoryH := handlers.NewCategoryHandler(st)
	projectH := handlers.NewProjectHandler(st, lifecycleSvc)
	bidH := handlers.NewBidHandler(st, lifecycleSvc)
	contractH := handlers.NewContractHandler(st, lifecycleSvc)
	reviewH := handlers.NewReviewHandler(st, lifecycleSvc)
	portfolioH := handlers.NewPortfolioHandler(st)
	earningsH := handlers.NewEarningsHandler(st)
	messageH := handlers.NewMessageHandler(st, hub, rdb)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/verify-email", authH.VerifyEmail)
	api.Post("/auth/resend-otp", authH.ResendOtp)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", categoryH.List)
	api.Get("/projects", projectH.ListOpen)
	api.Get("/projects/:id", projectH.GetDetail)
	api.Get("/users/:userId/reviews", reviewH.ListByUser)
	api.Get("/freelancers/:freelancerId/portfolio", portfolioH.Get)

	// protected (JWT in cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)

	// client side
	protected.Post("/projects",
		middleware.RequireRoles(string(models.RoleClient)),
		projectH.Create,
	)
	protected.Get("/client/projects",
		middleware.RequireRoles(string(models.RoleClient)),
		projectH.ListMine,
	)
	protected.Patch("/projects/:id/cancel",
		middleware.RequireRoles(string(models.RoleClient)),
		projectH.Cancel,
	)
	protected.Patch("/projects/:id/close",
		middleware.RequireRoles(string(models.RoleClient)),
		projectH.Close,
	)
	protected.Patch("/bids/:id/accept",
		middleware.RequireRoles(string(models.RoleClient)),
		bidH.Accept,
	)
	protected.Patch("/bids/:id/reject",
		middleware.RequireRoles(string(models.RoleClient)),
		bidH.Reject,
	)
	protected.Post("/contracts",
		middleware.RequireRoles(string(models.RoleClient)),
		contractH.Create,
	)
	protected.Post("/payments",
		middleware.RequireRoles(string(models.RoleClient)),
		earningsH.RecordPayment,
	)

	// freelancer side
	protected.Post("/bids",
		middleware.RequireRoles(string(models.RoleFreelancer)),
		bidH.Submit,
	)
	protected.Get("/freelancer/bids",
		middleware.RequireRoles(string(models.RoleFreelancer)),
		bidH.ListMine,
	)
	protected.Patch("/bids/:id/withdraw",
		middleware.RequireRoles(string(models.RoleFreelancer)),
		bidH.Withdraw,
	)
	protected.Put("/freelancer/portfolio",
		middleware.RequireRoles(string(models.RoleFreelancer)),
		portfolioH.Save,
	)
	protected.Post("/freelancer/portfolio/cases",
		middleware.RequireRoles(string(models.RoleFreelancer)),
		portfolioH.AddCase,
	)
	protected.Get("/freelancer/earnings",
		middleware.RequireRoles(string(models.RoleFreelancer)),
		earningsH.Summary,
	)

	// either party
	protected.Get("/contracts", contractH.ListMine)
	protected.Get("/contracts/:id", contractH.Get)
	protected.Patch("/contracts/:id/complete", contractH.Complete)
	protected.Patch("/contracts/:id/cancel", contractH.Cancel)
	protected.Patch("/contracts/:id/dispute", contractH.Dispute)
	protected.Get("/contracts/:id/payments", earningsH.ListByContract)
	protected.Get("/contracts/:id/reviews", reviewH.ListByContract)
	protected.Post("/reviews", reviewH.Create)

	// chat
	protected.Post("/messages", messageH.Send)
	protected.Get("/messages/unread-count", messageH.UnreadCount)
	protected.Get("/messages/:userId", messageH.Conversation)
	protected.Patch("/messages/:userId/read", messageH.MarkRead)

	// admin
	protected.Post("/categories",
		middleware.RequireRoles(string(models.RoleAdmin)),
		categoryH.Create,
	)

	// websocket, authenticated via query param
	app.Get("/ws/chat", websocket.New(messageH.WebSocket))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
