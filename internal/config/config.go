package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string          `yaml:"env" env:"ENV" env-default:"local"`
	Name        string          `yaml:"name" env:"NAME"`
	MetricsAddr string          `yaml:"metrics_addr" env:"METRICS_ADDR"`
	SpoolDir    string          `yaml:"spool_dir" env:"SPOOL_DIR"`
	Discovery   DiscoveryConfig `yaml:"discovery"`
}

type DiscoveryConfig struct {
	Port              int           `yaml:"port" env:"PORT" env-default:"7878"`
	BroadcastAddr     string        `yaml:"broadcast_addr" env:"BROADCAST_ADDR" env-default:"255.255.255.255"`
	BroadcastInterval time.Duration `yaml:"broadcast_interval" env:"BROADCAST_INTERVAL" env-default:"5s"`
	PeerTimeout       time.Duration `yaml:"peer_timeout" env:"PEER_TIMEOUT" env-default:"30s"`
	SweepInterval     time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL" env-default:"10s"`
	ReassemblyTimeout time.Duration `yaml:"reassembly_timeout" env:"REASSEMBLY_TIMEOUT" env-default:"20s"`
	PacketThreshold   int           `yaml:"packet_threshold" env:"PACKET_THRESHOLD" env-default:"1100"`
	MaxMessageSize    int           `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE" env-default:"262144"`
}

// MustLoad resolves the config path from the CONFIG_PATH environment
// variable. With no path set the tool runs on env variables and defaults
// alone, so zero configuration still works.
func MustLoad() *Config {
	return MustLoadPath(os.Getenv("CONFIG_PATH"))
}

func MustLoadPath(configPath string) *Config {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic("cannot read config from env: " + err.Error())
		}
		return &cfg
	}

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}
