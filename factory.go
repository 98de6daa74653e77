package ratelimit

import (
	"fmt"
	"time"
)

var (
	defaultResolution = 1000
)

// New returns an instance of ratelimit.RateLimiter
// built with the specified configuration.
//
// A non-nil error is returned in case of invalid configuration.
func New(config *Config) (RateLimiter, error) {
	logger := effectiveLogger(config.Logger)
	if config.Logger != nil {
		logger.Info("binding provided logger to RateLimiter")
	}

	parsedConfig, err := validateConfiguration(config, logger)
	if err != nil {
		return nil, err
	}

	out := rateLimiterDefaultImpl{
		Config:   parsedConfig,
		TimeFunc: config.TimeFunc,
		Logger:   logger,
	}

	if out.TimeFunc == nil {
		out.TimeFunc = time.Now
	}

	out.Epoch = out.currentTime()
	out.LastUpdateSlice = 0
	out.History = make([]uint64, parsedConfig.HistoryLength)
	out.CurrentCount = 0

	return &out, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew(config *Config) RateLimiter {
	out, err := New(config)
	if err != nil {
		panic(fmt.Errorf("could not build rate limiter: %w", err))
	}
	return out
}

// validateConfiguration will parse the user-provided configuration
// to the required format for runtime while also validating it.
func validateConfiguration(config *Config, logger Logger) (*rateLimiterEffectiveConfig, error) {
	if logger == nil {
		logger = &defaultLogger{}
	}

	out := rateLimiterEffectiveConfig{}

	if config.MaxPerWindow < 0 {
		return nil, invalidConfiguration("MaxPerWindow", "should be zero or positive (given: %v)", config.MaxPerWindow)
	}
	if config.MaxPerWindow == 0 {
		logger.Warning("MaxPerWindow is zero, every request will be rejected")
	}
	out.MaxPerWindow = uint64(config.MaxPerWindow)

	resolution := config.Resolution
	if resolution == 0 {
		resolution = defaultResolution
	}
	if resolution < 0 {
		return nil, invalidConfiguration("Resolution", "should be positive (given: %v)", config.Resolution)
	}
	if int64(resolution) > int64(time.Second) {
		return nil, invalidConfiguration("Resolution", "is too fine, a slice can't be shorter than a nanosecond (given: %v)", config.Resolution)
	}

	// one second should be exactly divisible in slices.
	if int64(time.Second)%int64(resolution) > 0 {
		return nil, invalidConfiguration("Resolution", "should divide a second in slices of equal duration (given: %v)", config.Resolution)
	}

	out.Resolution = uint64(resolution)
	out.SliceDuration = time.Second / time.Duration(resolution)
	// one slice of slack on top of the exact window.
	out.HistoryLength = uint64(resolution) + 1

	return &out, nil
}
