package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizshare-api/internal/config"
	"github.com/yourusername/quizshare-api/internal/handler"
	"github.com/yourusername/quizshare-api/internal/middleware"
	"github.com/yourusername/quizshare-api/internal/pkg/sharecode"
	pgRepo "github.com/yourusername/quizshare-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizshare-api/internal/repository/redis"
	"github.com/yourusername/quizshare-api/internal/service"
	"github.com/yourusername/quizshare-api/internal/service/session"
	"github.com/yourusername/quizshare-api/pkg/auth"
	"github.com/yourusername/quizshare-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, os.Getenv("MIGRATIONS_PATH")); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	participantRepo := pgRepo.NewParticipantRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Отправка писем о публикации: Resend или заглушка
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Enabled {
		resendService, err := service.NewResendEmailService(cfg.Email.APIKey, cfg.Email.FromEmail)
		if err != nil {
			log.Printf("Failed to initialize email service: %v", err)
			os.Exit(1)
		}
		emailService = resendService
	}

	// Генератор кодов доступа
	codes := sharecode.New(rand.NewSource(time.Now().UnixNano()))

	// Конфигурация сессий прохождения
	sessionConfig := session.DefaultConfig()
	if cfg.Session.RevealSeconds > 0 {
		sessionConfig.RevealSeconds = cfg.Session.RevealSeconds
	}
	sessionManager := session.NewManager()

	// Фоновая уборка брошенных сессий: созданные, но так и не запущенные
	// раннеры удаляются из реестра по истечении TTL
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sessionManager.EvictIdle(30 * time.Minute)
			case <-janitorCtx.Done():
				return
			}
		}
	}()

	// Инициализируем сервисы
	authService := service.NewAuthService(userRepo, jwtService)
	quizService := service.NewQuizService(quizRepo, userRepo, cacheRepo, codes, emailService)
	resultService := service.NewResultService(quizRepo, participantRepo)
	participationService := service.NewParticipationService(
		quizService, participantRepo, userRepo, sessionManager, sessionConfig)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	quizHandler := handler.NewQuizHandler(quizService, resultService)
	participationHandler := handler.NewParticipationHandler(participationService, quizService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		// Development: доверяем localhost
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	allowedOrigins := cfg.CORS.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		authGroup.Use(rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Профиль текущего пользователя
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", authHandler.Me)
		}

		// Викторины (авторинг, только для аутентифицированных)
		quizzes := api.Group("/quizzes")
		quizzes.Use(authMiddleware.RequireAuth())
		{
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.GET("", quizHandler.ListQuizzes)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				quizWithID.GET("", quizHandler.GetQuiz)
				quizWithID.PUT("", quizHandler.UpdateQuiz)
				quizWithID.DELETE("", quizHandler.DeleteQuiz)
				quizWithID.POST("/publish", quizHandler.PublishQuiz)
				quizWithID.GET("/results", quizHandler.GetResults)
				quizWithID.GET("/results/export", quizHandler.ExportResults)
			}
		}

		// Прохождение викторин по коду доступа
		join := api.Group("/join")
		{
			// Поиск викторины по коду — публичный, с лимитом от перебора кодов
			join.GET("/:code", rateLimiter.LimitByIP(middleware.JoinRateLimitConfig()), participationHandler.LookupQuiz)

			authedJoin := join.Group("")
			authedJoin.Use(authMiddleware.RequireAuth(), rateLimiter.Limit(middleware.JoinRateLimitConfig()))
			{
				authedJoin.POST("", participationHandler.JoinQuiz)
			}
		}

		// Сессии прохождения
		sessions := api.Group("/sessions")
		sessions.Use(authMiddleware.RequireAuth())
		{
			sessions.POST("/:sessionID/start", participationHandler.StartSession)
			sessions.GET("/:sessionID", participationHandler.GetSessionState)
			sessions.POST("/:sessionID/answer", participationHandler.SubmitAnswer)
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем активные сессии прохождения
	sessionManager.StopAll()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
