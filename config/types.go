package config

import "time"

type Config struct {
	Debug   bool    `mapstructure:"debug"`
	Log     Log     `mapstructure:"log"`
	Shopify Shopify `mapstructure:"shopify"`
	Server  Server  `mapstructure:"server"`
	Store   Store   `mapstructure:"store"`
	Sync    Sync    `mapstructure:"sync"`
	Notify  Notify  `mapstructure:"notify"`
}

type Log struct {
	Level  string `mapstructure:"level" validate:"required,oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=console json"`
}

// Shopify holds the session the remote API gateway is initialized with.
type Shopify struct {
	ApiKey      string        `mapstructure:"api_key" validate:"required"`
	AccessToken string        `mapstructure:"access_token" validate:"required"`
	Scopes      []string      `mapstructure:"scopes" validate:"required,min=1,dive,required"`
	Domain      string        `mapstructure:"domain" validate:"required,shopdomain"`
	ApiVersion  string        `mapstructure:"api_version" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"required"`
}

type Server struct {
	Address   string       `mapstructure:"address" validate:"required,hostname|ip"`
	Port      int          `mapstructure:"port" validate:"required,min=1,max=65535"`
	PublicUrl string       `mapstructure:"public_url" validate:"required,url"`
	Limits    ServerLimits `mapstructure:"limits"`
	Auth      ServerAuth   `mapstructure:"auth"`
}

type ServerLimits struct {
	MaxFileSize     uint `mapstructure:"max_file_size" validate:"required"`
	MaxMultipartMem uint `mapstructure:"max_multipart_mem" validate:"required"`
}

type ServerAuth struct {
	Tokens []AccessToken `mapstructure:"tokens" validate:"dive"`
}

type AccessToken struct {
	Name   string   `mapstructure:"name" validate:"required"`
	Token  string   `mapstructure:"token" validate:"required,min=16"`
	Scopes []string `mapstructure:"scopes" validate:"required,min=1,dive,oneof=read media sync"`
}

type Store struct {
	Strategy string    `mapstructure:"strategy" validate:"required,oneof=sql memory"`
	SQL      *SQLStore `mapstructure:"sql" validate:"required_if=Strategy sql"`
}

type SQLStore struct {
	Driver      string  `mapstructure:"driver" validate:"required,oneof=postgres mysql sqlite"`
	DSN         string  `mapstructure:"dsn" validate:"required"`
	TablePrefix *string `mapstructure:"table_prefix" validate:"omitempty,identifier"`
}

type Sync struct {
	Schedule string        `mapstructure:"schedule" validate:"required,cronspec"`
	Overlap  string        `mapstructure:"overlap" validate:"required,oneof=skip delay"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"required"`
}

type Notify struct {
	Websocket bool `mapstructure:"websocket"`
	QueueSize int  `mapstructure:"queue_size" validate:"min=0"`
}
