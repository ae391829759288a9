// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "BilingualTutor"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort     = ":8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultDailyMinutes   = 60
	DefaultHistoryDays    = 30
	DefaultInsightLimit   = 200
	DefaultAccessTokenTTL = 24 * time.Hour
)
