package middleware

import (
	"net/http"
	"strconv"

	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	// DefaultAPIRate applies to the public read endpoints.
	DefaultAPIRate = "30-M"

	apiRateLimitPrefix = "portfolio_api_limiter"
)

// APIRateLimit returns middleware backed by ulule/limiter using rate in
// limiter's "<n>-<S|M|H|D>" format. With a nil redisClient counters are kept
// in process. Requests are keyed by request.ClientIP. A store error lets the
// request through.
func APIRateLimit(rate string, redisClient *redis.Client, log *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultAPIRate
	}
	if log == nil {
		log = zap.NewNop()
	}

	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix:   apiRateLimitPrefix,
			MaxRetry: 3,
		})
		if err != nil {
			return nil, err
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          apiRateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}
	instance := limiter.New(store, parsed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := request.ClientIP(r)
			lctx, err := instance.Get(r.Context(), key)
			if err != nil {
				log.Warn("api_rate_limit_store_error",
					zap.String("client", logger.SanitizeIdentifier(key)),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}
