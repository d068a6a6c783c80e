package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"foodshare-connect/pkg/apperror"
	"foodshare-connect/pkg/database"
	"foodshare-connect/pkg/middleware"
	"foodshare-connect/pkg/queue"
	"foodshare-connect/pkg/response"
	"foodshare-connect/pkg/security"
	"foodshare-connect/services/user-service/config"
	"foodshare-connect/services/user-service/models"
	"foodshare-connect/services/user-service/store"
	"foodshare-connect/services/user-service/utils"
)

const welcomeMailQueue = "user_registered"

type server struct {
	store       store.UserStore
	cfg         config.Config
	amqpChannel *amqp.Channel
}

func main() {
	cfg := config.Load()

	db, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	if err := database.EnsureUserIndexes(db, "users"); err != nil {
		log.Fatalf("❌ Failed to create indexes: %v", err)
	}

	srv := &server{
		store: store.NewMongoStore(db),
		cfg:   cfg,
	}

	// Welcome mail events are best-effort: without a broker the service
	// still registers users, it just skips the email.
	if cfg.RabbitMQURL != "" {
		conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("[WARN] RabbitMQ unavailable, welcome emails disabled: %v", err)
		} else {
			defer conn.Close()
			defer ch.Close()
			srv.amqpChannel = ch
			log.Println("[OK] Connected to RabbitMQ")
		}
	} else {
		log.Println("[INFO] RabbitMQ not configured, welcome emails disabled")
	}

	middleware.RegisterMetrics()

	chain := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.TraceMiddleware(
			middleware.MetricsMiddleware(
				middleware.LoggerMiddleware(h),
			),
		).ServeHTTP
	}

	http.HandleFunc("/user/register", chain(srv.registerHandler))
	http.HandleFunc("/user/login", chain(srv.loginHandler))
	http.HandleFunc("/user/logout", chain(middleware.AuthMiddleware(srv.logoutHandler)))
	http.HandleFunc("/user/getuser/", chain(middleware.AuthMiddleware(srv.getUserHandler)))
	http.HandleFunc("/user/leaderboard", chain(srv.leaderboardHandler))

	http.HandleFunc("/health", srv.healthCheckHandler)
	http.Handle("/metrics", middleware.GetMetricsHandler())

	port := ":" + cfg.Port
	log.Printf("🚀 User Service running on port %s", port)
	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

func (s *server) registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, apperror.New("Method not allowed", http.StatusMethodNotAllowed))
		return
	}

	var payload models.RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("[WARN] Invalid registration request format")
		response.Error(w, apperror.New("Invalid request payload", http.StatusBadRequest))
		return
	}

	if err := payload.Validate(); err != nil {
		response.Error(w, err)
		return
	}

	// Fast-path duplicate check. The unique index remains the
	// authoritative guarantee under concurrent registration.
	if _, err := s.store.FindByEmail(r.Context(), payload.Email); err == nil {
		response.Error(w, apperror.New("Email already Exists", http.StatusBadRequest))
		return
	} else if err != store.ErrNotFound {
		response.Error(w, err)
		return
	}

	hashedPassword, err := security.HashPassword(payload.Password)
	if err != nil {
		log.Printf("[ERROR] Failed to hash password: %v", err)
		response.Error(w, apperror.New("Failed to process registration", http.StatusInternalServerError))
		return
	}

	user := models.NewUser(&payload, hashedPassword)
	if err := s.store.Insert(r.Context(), user); err != nil {
		log.Printf("[ERROR] Failed to save user: %v", err)
		response.Error(w, err)
		return
	}

	log.Printf("[OK] User registered - ID: %s", user.ID.Hex())

	go s.publishWelcomeEvent(user)

	response.Success(w, http.StatusOK, "User Registered Successfully", response.Body{
		"user": user,
	})
}

func (s *server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, apperror.New("Method not allowed", http.StatusMethodNotAllowed))
		return
	}

	var input struct {
		Role     string `json:"role"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("[WARN] Invalid login request format")
		response.Error(w, apperror.New("Invalid request payload", http.StatusBadRequest))
		return
	}

	if input.Role == "" || input.Email == "" || input.Password == "" {
		response.Error(w, apperror.New("Please Provide Role, Email and Password", http.StatusBadRequest))
		return
	}

	// Unknown email and wrong password report the same generic message
	// so a caller cannot probe which part failed.
	user, err := s.store.FindByEmail(r.Context(), input.Email)
	if err == store.ErrNotFound {
		log.Printf("[WARN] Failed login attempt")
		response.Error(w, apperror.New("Invalid Email or Password", http.StatusBadRequest))
		return
	} else if err != nil {
		response.Error(w, err)
		return
	}

	if !security.CheckPasswordHash(input.Password, user.Password) {
		log.Printf("[WARN] Invalid password attempt")
		response.Error(w, apperror.New("Invalid Email or Password", http.StatusBadRequest))
		return
	}

	if user.Role != models.Role(input.Role) {
		response.Error(w, apperror.New("User with provided email and role not found!", http.StatusNotFound))
		return
	}

	token, err := security.GenerateJWT(user.ID.Hex(), s.cfg.JWTExpire)
	if err != nil {
		log.Printf("[ERROR] Failed to generate JWT for user id: %s", user.ID.Hex())
		response.Error(w, apperror.New("Failed to generate token", http.StatusInternalServerError))
		return
	}

	utils.AttachTokenCookie(w, token, s.cfg.CookieExpire)

	log.Printf("[OK] User logged in - ID: %s, Role: %s", user.ID.Hex(), user.Role)

	response.Success(w, http.StatusOK, "Logged In Successfully", response.Body{
		"token": token,
		"user":  user,
	})
}

func (s *server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	utils.ClearTokenCookie(w)
	response.Success(w, http.StatusCreated, "User Logged Out Successfully", nil)
}

func (s *server) getUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, apperror.New("Method not allowed", http.StatusMethodNotAllowed))
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/user/getuser/")
	if id == "" {
		response.Error(w, apperror.New("Missing user ID", http.StatusBadRequest))
		return
	}

	user, err := s.store.FindByID(r.Context(), id)
	if err == store.ErrNotFound {
		response.JSON(w, http.StatusNotFound, response.Body{"msg": "Cannot find user"})
		return
	} else if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Body{
		"success": true,
		"user":    user,
	})
}

func (s *server) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, apperror.New("Method not allowed", http.StatusMethodNotAllowed))
		return
	}

	users, err := s.store.Leaderboard(r.Context())
	if err != nil {
		log.Printf("[ERROR] Failed to fetch leaderboard: %v", err)
		response.Error(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Users fetched successfully!", response.Body{
		"user": users,
	})
}

func (s *server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, response.Body{
			"success": false,
			"message": "Database disconnected",
		})
		return
	}

	response.JSON(w, http.StatusOK, response.Body{
		"success":   true,
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// publishWelcomeEvent hands the registration off to the mail service.
// Registration never fails on a publish error.
func (s *server) publishWelcomeEvent(user *models.User) {
	if s.amqpChannel == nil {
		return
	}

	event := models.UserRegisteredEvent{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}

	if err := queue.PublishMessage(s.amqpChannel, welcomeMailQueue, event); err != nil {
		middleware.LogError("", "Failed to publish welcome email event", err)
	}
}
