package server_config

import (
	"time"

	"github.com/calmerhq/calmer/internal/obs"
	pginfra "github.com/calmerhq/calmer/internal/repository/postgres"
	"github.com/calmerhq/calmer/internal/repository/push"
	"github.com/calmerhq/calmer/internal/services/reminder"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr         string        `mapstructure:"http_addr"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout  time.Duration `mapstructure:"graceful_timeout"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Config struct {
	App      App             `mapstructure:"app"`
	Server   Server          `mapstructure:"server"`
	DB       pginfra.Config  `mapstructure:"db"`
	Push     push.Config     `mapstructure:"push"`
	Reminder reminder.Config `mapstructure:"reminder"`
	Log      Log             `mapstructure:"log"`
	OTEL     OTEL            `mapstructure:"otel"`
}

func (lc *Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}
