package config

import "time"

type SQLite struct {
	DSN string `env:"DSN,expand" envDefault:"modelkit.sqlite"`
}

type Redis struct {
	Addr      string `env:"ADDR,expand" envDefault:"localhost:6379"`
	Password  string `env:"PASSWORD,expand"`
	DB        int    `env:"DB" envDefault:"0"`
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"modelkit:"`
}

type Cache struct {
	Enabled bool          `env:"ENABLED" envDefault:"false"`
	Size    int           `env:"SIZE" envDefault:"1024"`
	TTL     time.Duration `env:"TTL" envDefault:"5m"`
}
