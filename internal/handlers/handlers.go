package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"accounthub/api/internal/config"
	"accounthub/api/internal/media/codec"
	"accounthub/api/internal/middleware"
	"accounthub/api/internal/models"
	"accounthub/api/internal/repository"
	"accounthub/api/internal/service"
	"accounthub/api/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	accounts *service.AccountService
	avatars  *service.AvatarService
	users    service.UserStore
	tokens   service.TokenStore
	issuer   service.TokenIssuer
	db       *pgxpool.Pool
	cache    *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	issuer := service.NewJWTIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	normalizer := codec.NewPNGNormalizer(cfg.Avatar.Width, cfg.Avatar.Height)

	var archiver service.OriginalArchiver
	if store != nil {
		archiver = store
	}

	accounts := service.NewAccountService(userRepo, tokenRepo, issuer, log)
	avatars := service.NewAvatarService(userRepo, normalizer, archiver, cache, cfg.Avatar.CacheTTL, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		accounts: accounts,
		avatars:  avatars,
		users:    userRepo,
		tokens:   tokenRepo,
		issuer:   issuer,
		db:       db,
		cache:    cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	users := router.Group("/users")
	{
		users.POST("", h.RegisterUser)
		users.POST("/login", h.Login)
		users.GET("/:id/avatar", h.FetchAvatar)

		me := users.Group("")
		me.Use(middleware.Auth(h.issuer, h.users, h.tokens))
		me.POST("/logout", h.Logout)
		me.POST("/logoutAll", h.LogoutAll)
		me.GET("/me", h.Me)
		me.PATCH("/me", h.UpdateMe)
		me.DELETE("/me", h.DeleteMe)
		me.POST("/me/avatar", h.UploadAvatar)
		me.DELETE("/me/avatar", h.DeleteAvatar)
	}
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(middleware.ContextUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

func currentToken(c *gin.Context) string {
	return c.GetString(middleware.ContextToken)
}
