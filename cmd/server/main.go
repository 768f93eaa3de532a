package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bookmyseva/darshan/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	redisDB = configVar[int]{
		envKey:       "REDIS_DB",
		flagKey:      "redis-db",
		defaultValue: 0,
	}
	contentAPIURL = configVar[string]{
		envKey:       "CONTENT_API_URL",
		flagKey:      "content-api-url",
		defaultValue: "https://api.bookmyseva.com/api",
	}
	defaultVideoID = configVar[string]{
		envKey:       "DARSHAN_DEFAULT_VIDEO_ID",
		flagKey:      "default-video-id",
		defaultValue: "eTWaPQW7rdk",
	}
	sessionExp = configVar[time.Duration]{
		envKey:       "DARSHAN_SESSION_EXP",
		flagKey:      "session-exp",
		defaultValue: 10 * time.Minute,
	}
	capabilityTimeout = configVar[time.Duration]{
		envKey:       "DARSHAN_CAPABILITY_TIMEOUT",
		flagKey:      "capability-timeout",
		defaultValue: 3 * time.Second,
	}
	emitRetries = configVar[int]{
		envKey:       "DARSHAN_EMIT_RETRIES",
		flagKey:      "emit-retries",
		defaultValue: 3,
	}
	videoMetadata = configVar[bool]{
		envKey:       "DARSHAN_VIDEO_METADATA",
		flagKey:      "video-metadata",
		defaultValue: true,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Server secret")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Int(redisDB.flagKey, redisDB.defaultValue, "Redis database number")
	pflag.String(contentAPIURL.flagKey, contentAPIURL.defaultValue, "Base URL of the content API")
	pflag.String(defaultVideoID.flagKey, defaultVideoID.defaultValue, "Video played when the live URL cannot be resolved")
	pflag.Duration(sessionExp.flagKey, sessionExp.defaultValue, "Lifetime of a prepared session")
	pflag.Duration(capabilityTimeout.flagKey, capabilityTimeout.defaultValue, "How long to wait for the page to answer a capability request")
	pflag.Int(emitRetries.flagKey, emitRetries.defaultValue, "Attempts per player command")
	pflag.Bool(videoMetadata.flagKey, videoMetadata.defaultValue, "Fetch video title and author")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(redisDB.flagKey, redisDB.envKey)
	viper.BindEnv(contentAPIURL.flagKey, contentAPIURL.envKey)
	viper.BindEnv(defaultVideoID.flagKey, defaultVideoID.envKey)
	viper.BindEnv(sessionExp.flagKey, sessionExp.envKey)
	viper.BindEnv(capabilityTimeout.flagKey, capabilityTimeout.envKey)
	viper.BindEnv(emitRetries.flagKey, emitRetries.envKey)
	viper.BindEnv(videoMetadata.flagKey, videoMetadata.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(redisDB.flagKey, redisDB.defaultValue)
	viper.SetDefault(contentAPIURL.flagKey, contentAPIURL.defaultValue)
	viper.SetDefault(defaultVideoID.flagKey, defaultVideoID.defaultValue)
	viper.SetDefault(sessionExp.flagKey, sessionExp.defaultValue)
	viper.SetDefault(capabilityTimeout.flagKey, capabilityTimeout.defaultValue)
	viper.SetDefault(emitRetries.flagKey, emitRetries.defaultValue)
	viper.SetDefault(videoMetadata.flagKey, videoMetadata.defaultValue)

	config := &app.AppConfig{
		Secret:            viper.GetString(secret.flagKey),
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
		RedisDB:           viper.GetInt(redisDB.flagKey),
		ContentAPIURL:     viper.GetString(contentAPIURL.flagKey),
		DefaultVideoID:    viper.GetString(defaultVideoID.flagKey),
		SessionExp:        viper.GetDuration(sessionExp.flagKey),
		CapabilityTimeout: viper.GetDuration(capabilityTimeout.flagKey),
		EmitRetries:       viper.GetInt(emitRetries.flagKey),
		VideoMetadata:     viper.GetBool(videoMetadata.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
