package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/sorabase/catalog/internal/domain"
)

type Config struct {
	Node     Node     `yaml:"node"`
	Server   Server   `yaml:"server"`
	Pipeline Pipeline `yaml:"pipeline"`
	Limiter  Limiter  `yaml:"limiter"`
	Rules    Rules    `yaml:"rules"`
}

type Node struct {
	Name string `yaml:"name"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Pipeline struct {
	FlushEvery    int      `yaml:"flushEvery"`
	AbortOnError  bool     `yaml:"abortOnError"`
	ErrorTruncate int      `yaml:"errorTruncate"`
	RetryAttempts int      `yaml:"retryAttempts"`
	RetryBackoff  Duration `yaml:"retryBackoff"`
	LeaseTTL      Duration `yaml:"leaseTTL"`
	CrawlWorkers  int      `yaml:"crawlWorkers"`
	CrawlQueue    int      `yaml:"crawlQueue"`
}

// Duration accepts Go duration strings ("30s", "10m") in yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type Limiter struct {
	PerSecond int `yaml:"perSecond"`
	PerMinute int `yaml:"perMinute"`
}

type Rules struct {
	Dir string `yaml:"dir"`
	// Table maps "domain/platform" to a rule id (the rule file name
	// without extension). An ingested pair missing from this table is a
	// configuration error.
	Table map[string]string `yaml:"table"`
}

func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}
	if config.Limiter.PerSecond <= 0 {
		config.Limiter.PerSecond = 5
	}
	if config.Limiter.PerMinute <= 0 {
		config.Limiter.PerMinute = 120
	}
	if config.Node.Name == "" {
		host, _ := os.Hostname()
		config.Node.Name = host
	}

	return config, nil
}

// Domain returns the pipeline settings in the shape services consume.
func (c Config) Domain() domain.Config {
	conf := domain.Config{
		NodeName:      c.Node.Name,
		FlushEvery:    c.Pipeline.FlushEvery,
		AbortOnError:  c.Pipeline.AbortOnError,
		ErrorTruncate: c.Pipeline.ErrorTruncate,
		RetryAttempts: c.Pipeline.RetryAttempts,
		RetryBackoff:  time.Duration(c.Pipeline.RetryBackoff),
		LeaseTTL:      time.Duration(c.Pipeline.LeaseTTL),
	}
	conf.Defaults()
	return conf
}
