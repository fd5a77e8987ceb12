package container

import (
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/peerlend/api/internal/config"
	"github.com/peerlend/api/internal/locks"
	"github.com/peerlend/api/internal/models"
	"github.com/peerlend/api/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Logger *slog.Logger
	Config *config.Config

	MongoDBClient *mongo.Client
	RedisClient   *redis.Client

	ItemService    *services.ItemService
	BookingService *services.BookingService
	ReviewService  *services.ReviewService
	RelayService   *services.RelayService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	cfg *config.Config,
	mongoDBClient *mongo.Client,
	redisClient *redis.Client,
) *Container {
	repo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBName)

	var locker locks.Locker
	if cfg.UseRedisLocks() && redisClient != nil {
		locker = locks.NewRedisLocker(redisClient)
	} else {
		locker = locks.NewMutexLocker()
	}

	itemService := services.NewItemService(repo, repo)
	bookingService := services.NewBookingService(repo, repo, locker, logger)
	reviewService := services.NewReviewService(repo, repo, repo, locker, logger)
	relayService := services.NewRelayService(repo, cfg.RelayURL, logger)

	return &Container{
		Logger:         logger,
		Config:         cfg,
		MongoDBClient:  mongoDBClient,
		RedisClient:    redisClient,
		ItemService:    itemService,
		BookingService: bookingService,
		ReviewService:  reviewService,
		RelayService:   relayService,
	}
}
