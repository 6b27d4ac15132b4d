package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/paisapath/PaisaPath/internal/data"
	"github.com/paisapath/PaisaPath/internal/logger"
	"github.com/paisapath/PaisaPath/internal/store"
	"github.com/paisapath/PaisaPath/internal/vcs"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	version = vcs.Version()
)

type apikey_details struct {
	key string
	url string
}

type config struct {
	port int
	env  string
	api  struct {
		name            string
		defaultcurrency string
		apikeys         struct {
			exchangerates apikey_details
		}
	}
	redis struct {
		addr     string
		password string
		db       int
	}
	http_client struct {
		timeout  time.Duration
		retrymax int
	}
	limiter struct {
		rps     float64
		burst   int
		enabled bool
	}
	cors struct {
		trustedOrigins []string
	}
	scheduler struct {
		goalProgressCron *cron.Cron
		overdueGoalsCron *cron.Cron
	}
}

type application struct {
	config      config
	logger      *zap.Logger
	goals       *store.GoalStore
	http_client *PaisaPath_Client
	RedisDB     *redis.Client
	wg          sync.WaitGroup
}

func main() {
	logger, err := logger.InitJSONLogger()
	if err != nil {
		fmt.Println("Error initializing logger")
		return
	}
	// Load the environment variables from the .env file
	getCurrentPath(logger)
	// config
	var cfg config

	// Load our configurations from the Flags
	// Port & env
	flag.IntVar(&cfg.port, "port", 4000, "API server port")
	flag.StringVar(&cfg.env, "env", "development", "Environment (development|staging|production)")
	// API configuration
	flag.StringVar(&cfg.api.name, "api-name", "PaisaPath", "API name")
	flag.StringVar(&cfg.api.defaultcurrency, "api-default-currency", data.DefaultGoalCurrency, "Default currency")
	// exchange rates
	flag.StringVar(&cfg.api.apikeys.exchangerates.key, "api-key-exchangerates", os.Getenv("PAISAPATH_EXCHANGERATE_API_KEY"), "Exchange-Rate API Key")
	flag.StringVar(&cfg.api.apikeys.exchangerates.url, "api-url-exchangerates", "https://v6.exchangerate-api.com/v6", "Exchange-Rate API URL")
	// Rate limiter flags
	flag.Float64Var(&cfg.limiter.rps, "limiter-rps", 5, "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 10, "Rate limiter maximum burst")
	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")
	// Redis configuration
	flag.StringVar(&cfg.redis.addr, "redis-addr", "localhost:6379", "Redis address")
	flag.StringVar(&cfg.redis.password, "redis-password", os.Getenv("PAISAPATH_REDIS_PASSWORD"), "Redis password")
	flag.IntVar(&cfg.redis.db, "redis-db", 0, "Redis database")
	// HTTP client configuration
	flag.DurationVar(&cfg.http_client.timeout, "http-client-timeout", 10*time.Second, "HTTP client timeout")
	flag.IntVar(&cfg.http_client.retrymax, "http-client-retrymax", 3, "HTTP client maximum retries")
	// CORS configuration
	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		defaultCorsTrustedOrigins := "http://localhost:5173"
		if val == "" {
			val = defaultCorsTrustedOrigins
		}
		cfg.cors.trustedOrigins = strings.Fields(val)
		return nil
	})
	// Create a new version boolean flag with the default value of false.
	displayVersion := flag.Bool("version", false, "Display version and exit")
	// Parse the flags
	flag.Parse()
	// Initialize our cronJobs
	cfg.scheduler.goalProgressCron = cron.New()
	cfg.scheduler.overdueGoalsCron = cron.New()

	// If the version flag value is true, then print out the version number and
	// immediately exit.
	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	// Initialize Redis connection
	rdb, err := openRedis(cfg)
	if err != nil {
		logger.Fatal("Error while connecting to Redis.", zap.String("error", err.Error()))
	}
	logger.Info("Redis connection established", zap.String("addr", cfg.redis.addr))
	// create our http client
	httpClient := NewClient(cfg.http_client.timeout, cfg.http_client.retrymax)
	// Init our exp metrics variables for server metrics.
	publishMetrics()

	app := &application{
		config:      cfg,
		logger:      logger,
		goals:       store.NewGoalStore(rdb),
		http_client: httpClient,
		RedisDB:     rdb,
	}
	err = app.startupFunction()
	if err != nil {
		logger.Fatal("Error while starting up application", zap.String("error", err.Error()))
		return
	}
	// start schedulers
	app.startSchedulers()

	err = app.server()
	if err != nil {
		logger.Fatal("Error while starting server.", zap.String("error", err.Error()))
	}

}

// startupFunction warms the currency-rate cache. The default currency must
// always validate, so a failed fetch degrades to seeding just that one rather
// than aborting boot.
func (app *application) startupFunction() error {
	err := app.verifyCurrencyInRedis(app.config.api.defaultcurrency)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrFailedToGetCurrency):
			app.logger.Info("currency cache is cold, fetching rates", zap.String("currency", app.config.api.defaultcurrency))
			err = app.getAndSaveAvailableCurrencies()
			if err != nil {
				app.logger.Error("Failed to fetch currency rates, keeping the default currency only", zap.Error(err))
				return app.seedDefaultCurrency()
			}
		default:
			app.logger.Error("Error verifying currency in Redis", zap.String("error", err.Error()))
			return err
		}
	}
	return nil
}

// startSchedulers starts the cronjobs for the application
func (app *application) startSchedulers() {
	app.logger.Info("Starting Schedulers")
	go app.trackGoalProgressScheduleHandler() // trackGoalProgress
	go app.trackOverdueGoalsScheduleHandler() // trackOverdueGoals
}

// publishMetrics sets up the expvar variables for the application
// It sets the version, the number of active goroutines, and the current Unix timestamp.
func publishMetrics() {
	expvar.NewString("version").Set(version)
	// Publish the number of active goroutines.
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	// Publish the current Unix timestamp.
	expvar.Publish("timestamp", expvar.Func(func() any {
		return time.Now().Unix()
	}))
}

// getCurrentPath invokes getEnvPath to get the path to the .env file based on the current working directory.
// After that it loads the .env file using godotenv.Load to be used by the flag defaults.
func getCurrentPath(logger *zap.Logger) string {
	currentpath := getEnvPath(logger)
	if currentpath != "" {
		err := godotenv.Load(currentpath)
		if err != nil {
			logger.Error("unable to load .env file, proceeding with the environment as-is", zap.String("path", currentpath))
		}
	}
	logger.Info("Loading Environment Variables", zap.String("path", currentpath))
	return currentpath
}

// getEnvPath returns the path to the .env file based on the current working directory.
func getEnvPath(logger *zap.Logger) string {
	dir, err := os.Getwd()
	if err != nil {
		logger.Fatal(err.Error(), zap.String("path", dir))
		return ""
	}
	if strings.Contains(dir, "cmd/api") || strings.Contains(dir, "cmd") {
		return ".env"
	}
	return filepath.Join("cmd", "api", ".env")
}

// openRedis() opens a new Redis connection using the provided configuration.
// It returns a pointer to the Redis client and an error value.
func openRedis(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.redis.addr,
		Password: cfg.redis.password,
		DB:       cfg.redis.db,
	})

	// Ping the Redis server to check if the connection is successful
	err := rdb.Ping(context.Background()).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}
