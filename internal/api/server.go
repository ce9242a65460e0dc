package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/vpierre44/formation-api/docs"
	v1 "github.com/vpierre44/formation-api/internal/api/handler/v1"
	"github.com/vpierre44/formation-api/internal/api/middleware"
	"github.com/vpierre44/formation-api/internal/config"
	"github.com/vpierre44/formation-api/internal/repository"
	"github.com/vpierre44/formation-api/internal/repository/dao"
	"github.com/vpierre44/formation-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	loc, err := time.LoadLocation(conf.Planning.Timezone)
	if err != nil {
		return nil, fmt.Errorf("time.LoadLocation(%q) -> %w", conf.Planning.Timezone, err)
	}

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	planningSvc := s.initPlanningService(db, loc)
	// Entries cached before a restart must never be served.
	planningSvc.ClearCache()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	planningHandler := v1.NewPlanningHandler(planningSvc, loc)
	bookingHandler := s.initBookingHandler(db, planningSvc, loc)
	s.MountHandlers(authHandler, userHandler, planningHandler, bookingHandler)

	return s, nil
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initPlanningService(db *gorm.DB, loc *time.Location) *service.PlanningService {
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))

	ttl := service.DefaultCacheTTL
	if s.Config.Planning.CacheTTLSeconds > 0 {
		ttl = time.Duration(s.Config.Planning.CacheTTLSeconds) * time.Second
	}

	return service.NewPlanningService(userRepo, eventRepo, loc, ttl, nil)
}

func (s *Server) initBookingHandler(db *gorm.DB, planningSvc *service.PlanningService, loc *time.Location) *v1.BookingHandler {
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	projetRepo := repository.NewProjetRepository(dao.NewProjetDAO(db))
	taskRepo := repository.NewTaskRepository(dao.NewTaskDAO(db))
	svc := service.NewBookingService(eventRepo, projetRepo, taskRepo, planningSvc, loc)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewBookingHandler(svc, planningSvc, uSvc, loc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, userHandler *v1.UserHandler, planningHandler *v1.PlanningHandler, bookingHandler *v1.BookingHandler) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	users := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		users.GET("/users/:userID", userHandler.HandleGetUser)
		users.POST("/users/:userID/competences", userHandler.HandleAddCompetence)
	}

	planning := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		planning.GET("/planning/logiciels/:logicielID/slots", planningHandler.HandleGetDailySlots)
		planning.GET("/planning/logiciels/:logicielID/session-slots", planningHandler.HandleGetSessionSlots)
		planning.GET("/planning/logiciels/:logicielID/month", planningHandler.HandleGetMonthAvailability)
		planning.DELETE("/planning/cache", planningHandler.HandleClearCache)
	}

	bookings := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		bookings.POST("/bookings/sessions", bookingHandler.HandleBookSession)
		bookings.PUT("/bookings/sessions/:projetID", bookingHandler.HandleModifySession)
		bookings.POST("/bookings/appointments", bookingHandler.HandleBookAppointment)
		bookings.GET("/bookings/appointments", bookingHandler.HandleGetExistingAppointment)
		bookings.PUT("/bookings/appointments/:eventID", bookingHandler.HandleModifyAppointment)
		bookings.DELETE("/bookings/appointments/:eventID", bookingHandler.HandleDeleteAppointment)
		bookings.POST("/bookings/projets/:projetID/stagiaires/sync", bookingHandler.HandleSyncStagiaires)
		bookings.POST("/bookings/projets/:projetID/stagiaires/rebuild", bookingHandler.HandleRebuildStagiaires)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Formation planning API"
	docs.SwaggerInfo.Description = "Trainer availability and session booking API."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
