package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	primaryTableVar   = "PRIMARY_SESSION_TABLE"
	secondaryTableVar = "SECONDARY_SESSION_TABLE"
	idleTimeoutVar    = "IDLE_SESSION_TIMEOUT"
	refreshWindowVar  = "TOKEN_REFRESH_WINDOW"
	sessionStoreVar   = "SESSION_STORE"
	redisAddrVar      = "REDIS_ADDR"
	redisPasswordVar  = "REDIS_PASSWORD"
	redisKeyPrefixVar = "REDIS_KEY_PREFIX"
)

// Session store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
)

type SessionConfig interface {
	// GetPrimaryTable is the token mapping table written at first login
	GetPrimaryTable() string
	// GetSecondaryTable is the session management table holding concurrent sessions
	GetSecondaryTable() string
	GetIdleSessionTimeout() time.Duration
	GetTokenRefreshWindow() time.Duration
	GetSessionStore() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisKeyPrefix() string
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

func (s Session) GetPrimaryTable() string {
	return s.v.GetString(primaryTableVar)
}

func (s Session) GetSecondaryTable() string {
	return s.v.GetString(secondaryTableVar)
}

func (s Session) GetIdleSessionTimeout() time.Duration {
	return s.v.GetDuration(idleTimeoutVar)
}

func (s Session) GetTokenRefreshWindow() time.Duration {
	return s.v.GetDuration(refreshWindowVar)
}

func (s Session) GetSessionStore() string {
	return s.v.GetString(sessionStoreVar)
}

func (s Session) GetRedisAddr() string {
	return s.v.GetString(redisAddrVar)
}

func (s Session) GetRedisPassword() string {
	return s.v.GetString(redisPasswordVar)
}

func (s Session) GetRedisKeyPrefix() string {
	return s.v.GetString(redisKeyPrefixVar)
}
