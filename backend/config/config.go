package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig 客户端配置，默认值与浏览器版保持一致
type ClientConfig struct {
	Endpoint          string        `mapstructure:"Endpoint"`
	FlushInterval     time.Duration `mapstructure:"FlushInterval"`
	ReconnectInterval time.Duration `mapstructure:"ReconnectInterval"`
	HandshakeTimeout  time.Duration `mapstructure:"HandshakeTimeout"`
	SendQueue         int           `mapstructure:"SendQueue"`
	LoadingText       string        `mapstructure:"LoadingText"`
	ClosedText        string        `mapstructure:"ClosedText"`
}

type ServerConfig struct {
	Running struct {
		Host string `mapstructure:"Host"`
		Port int    `mapstructure:"Port"`
	} `mapstructure:"Running"`
	Store struct {
		// "file" or "redis"
		Driver    string `mapstructure:"Driver"`
		Path      string `mapstructure:"Path"`
		BackupDir string `mapstructure:"BackupDir"`
	} `mapstructure:"Store"`
	Redis struct {
		Addrs    []string `mapstructure:"addrs"`
		Password string   `mapstructure:"password"`
		Key      string   `mapstructure:"key"`
	} `mapstructure:"Redis"`
	Mysql struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"Mysql"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"Kafka"`
	Intervals struct {
		Write  time.Duration `mapstructure:"Write"`
		Backup time.Duration `mapstructure:"Backup"`
	} `mapstructure:"Intervals"`
	// 每次落盘后把最新全文推给所有在线连接
	Broadcast bool `mapstructure:"Broadcast"`
}

const envPrefix = "RAMBLE"

// 兼容从项目根目录或 backend 目录启动
var defaultPaths = []string{"./backend/config", "./config", "."}

func newViper(name string, paths []string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = defaultPaths
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readOptional 读取配置文件；找不到文件时直接使用默认值
func readOptional(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

func LoadClient(paths ...string) (*ClientConfig, error) {
	v := newViper("clientConfig", paths)
	v.SetDefault("Endpoint", "ws://localhost:42069/ws")
	v.SetDefault("FlushInterval", 5*time.Second)
	v.SetDefault("ReconnectInterval", 10*time.Second)
	v.SetDefault("HandshakeTimeout", 5*time.Second)
	v.SetDefault("SendQueue", 16)
	v.SetDefault("LoadingText", "Loading the ramblathon...")
	v.SetDefault("ClosedText", "Ramblathon is currently closed!")
	if err := readOptional(v); err != nil {
		return nil, err
	}
	cfg := &ClientConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadServer(paths ...string) (*ServerConfig, error) {
	v := newViper("serverConfig", paths)
	v.SetDefault("Running.Host", "127.0.0.1")
	v.SetDefault("Running.Port", 42069)
	v.SetDefault("Store.Driver", "file")
	v.SetDefault("Store.Path", "./out/buffer.txt")
	v.SetDefault("Store.BackupDir", "./out/backup")
	v.SetDefault("Redis.key", "ramble:{buffer}")
	v.SetDefault("Kafka.topic", "ramble-deltas")
	v.SetDefault("Intervals.Write", 30*time.Second)
	v.SetDefault("Intervals.Backup", time.Hour)
	v.SetDefault("Broadcast", false)
	if err := readOptional(v); err != nil {
		return nil, err
	}
	cfg := &ServerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
