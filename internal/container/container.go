package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/config"
	"github.com/Navjot67/tolls-app/internal/domain/repository"
	"github.com/Navjot67/tolls-app/internal/scraper"
	"github.com/Navjot67/tolls-app/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client

	accountRepo repository.AccountRepository
	userRepo    repository.UserRepository
	fetcher     scraper.Fetcher

	rabbitPub *helpers.RabbitPublisher
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }
func SetRedis(r *redis.Client)   { redisClient = r }
func GetRedis() *redis.Client    { return redisClient }

func SetAccountRepo(r repository.AccountRepository) { accountRepo = r }
func GetAccountRepo() repository.AccountRepository  { return accountRepo }
func SetUserRepo(r repository.UserRepository)       { userRepo = r }
func GetUserRepo() repository.UserRepository        { return userRepo }
func SetFetcher(f scraper.Fetcher)                  { fetcher = f }
func GetFetcher() scraper.Fetcher                   { return fetcher }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
