package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/couchsync/server/internal/app"
	"github.com/couchsync/server/pkg/callsclient"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	port = configVar[int]{
		envKey:       "COUCHSYNC_PORT",
		flagKey:      "port",
		defaultValue: 8080,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "COUCHSYNC_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "COUCHSYNC_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	membersLimit = configVar[int]{
		envKey:       "COUCHSYNC_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 9,
		usage:        "Maximum number of users in a room, 0 for unlimited",
	}
	roomCodeLength = configVar[int]{
		envKey:       "COUCHSYNC_ROOM_CODE_LENGTH",
		flagKey:      "room-code-length",
		defaultValue: 4,
		usage:        "Length of generated room codes",
	}
	outboundBuffer = configVar[int]{
		envKey:       "COUCHSYNC_OUTBOUND_BUFFER",
		flagKey:      "outbound-buffer",
		defaultValue: 10,
		usage:        "Queued messages per connection before new ones are dropped",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
		usage:        "Redis host for the room directory, empty keeps it in memory",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	roomTTL = configVar[time.Duration]{
		envKey:       "REDIS_ROOM_TTL",
		flagKey:      "room-ttl",
		defaultValue: 24 * time.Hour,
		usage:        "Expiry of room summaries in redis",
	}
	callsBaseURL = configVar[string]{
		envKey:       "CALLS_BASE_URL",
		flagKey:      "calls-base-url",
		defaultValue: callsclient.DefaultBaseURL,
		usage:        "SFU control plane base url",
	}
	callsAppID = configVar[string]{
		envKey:       "CALLS_APP_ID",
		flagKey:      "calls-app-id",
		defaultValue: "",
		usage:        "SFU application id",
	}
	callsAppSecret = configVar[string]{
		envKey:       "CALLS_APP_SECRET",
		flagKey:      "calls-app-secret",
		defaultValue: "",
		usage:        "SFU application secret",
	}
)

func bind[T any](v *viper.Viper, cv configVar[T]) {
	v.BindEnv(cv.flagKey, cv.envKey)
	v.SetDefault(cv.flagKey, cv.defaultValue)
}

func registerFlags(fs *pflag.FlagSet) {
	fs.Int(port.flagKey, port.defaultValue, port.usage)
	fs.String(host.flagKey, host.defaultValue, host.usage)
	fs.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	fs.Int(membersLimit.flagKey, membersLimit.defaultValue, membersLimit.usage)
	fs.Int(roomCodeLength.flagKey, roomCodeLength.defaultValue, roomCodeLength.usage)
	fs.Int(outboundBuffer.flagKey, outboundBuffer.defaultValue, outboundBuffer.usage)
	fs.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	fs.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	fs.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	fs.Duration(roomTTL.flagKey, roomTTL.defaultValue, roomTTL.usage)
	fs.String(callsBaseURL.flagKey, callsBaseURL.defaultValue, callsBaseURL.usage)
	fs.String(callsAppID.flagKey, callsAppID.defaultValue, callsAppID.usage)
	fs.String(callsAppSecret.flagKey, callsAppSecret.defaultValue, callsAppSecret.usage)
}

// loadAppConfig resolves every setting as flag, then env, then default.
func loadAppConfig(fs *pflag.FlagSet) (*app.AppConfig, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	bind(v, port)
	bind(v, host)
	bind(v, logLevel)
	bind(v, membersLimit)
	bind(v, roomCodeLength)
	bind(v, outboundBuffer)
	bind(v, redisHost)
	bind(v, redisPort)
	bind(v, redisPassword)
	bind(v, roomTTL)
	bind(v, callsBaseURL)
	bind(v, callsAppID)
	bind(v, callsAppSecret)

	return &app.AppConfig{
		Host:           v.GetString(host.flagKey),
		Port:           v.GetInt(port.flagKey),
		LogLevel:       v.GetString(logLevel.flagKey),
		MembersLimit:   v.GetInt(membersLimit.flagKey),
		RoomCodeLength: v.GetInt(roomCodeLength.flagKey),
		OutboundBuffer: v.GetInt(outboundBuffer.flagKey),
		RedisHost:      v.GetString(redisHost.flagKey),
		RedisPort:      v.GetInt(redisPort.flagKey),
		RedisPassword:  v.GetString(redisPassword.flagKey),
		RoomTTL:        v.GetDuration(roomTTL.flagKey),
		CallsBaseURL:   v.GetString(callsBaseURL.flagKey),
		CallsAppID:     v.GetString(callsAppID.flagKey),
		CallsAppSecret: v.GetString(callsAppSecret.flagKey),
	}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "couchsync-server",
		Short: "Watch-together signaling server",
		Long: `Keeps rooms of viewers in sync over websockets and relays WebRTC
signaling between them and the SFU.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := loadAppConfig(cmd.Flags())
			if err != nil {
				return err
			}

			jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
			fmt.Fprintf(cmd.OutOrStdout(), "starting app with config: %s\n", jsonConfig)

			return app.Run(cmd.Context(), appConfig)
		},
	}
	registerFlags(cmd.Flags())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
