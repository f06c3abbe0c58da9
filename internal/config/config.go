package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MemoryConfig holds in-memory/JSON recording backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite recording backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// WebsocketConfig holds live-streaming backend settings
type WebsocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the recording backend
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Websocket WebsocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry export settings
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout   time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	MetricInterval time.Duration `json:"metricInterval" mapstructure:"metricInterval"`
	Endpoint       string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `json:"insecure" mapstructure:"insecure"`
}

// BattleConfig holds simulation loop settings
type BattleConfig struct {
	TickRate        float64 `json:"tickRate" mapstructure:"tickRate"`
	CaptureInterval uint    `json:"captureInterval" mapstructure:"captureInterval"`
}

// InfluxConfig holds InfluxDB connection settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
}

// APIConfig holds battle hub upload settings
type APIConfig struct {
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
}

// ArenaConfig describes the battle arena
type ArenaConfig struct {
	Name        string  `json:"name" mapstructure:"name"`
	DisplayName string  `json:"displayName" mapstructure:"displayName"`
	Author      string  `json:"author" mapstructure:"author"`
	Width       float64 `json:"width" mapstructure:"width"`
	Height      float64 `json:"height" mapstructure:"height"`
}

// Rewards holds the base experience awarded per defeated opponent type.
// The award scales with player level before it is applied.
type Rewards struct {
	Tank     int `json:"tank" mapstructure:"tank"`
	Rifleman int `json:"rifleman" mapstructure:"rifleman"`
	RPG      int `json:"rpg" mapstructure:"rpg"`
	Sniper   int `json:"sniper" mapstructure:"sniper"`
	Medic    int `json:"medic" mapstructure:"medic"`
}

// Infantry returns the base reward for an infantry class name.
// Unknown classes earn nothing.
func (r Rewards) Infantry(class string) int {
	switch class {
	case "rifleman":
		return r.Rifleman
	case "rpg":
		return r.RPG
	case "sniper":
		return r.Sniper
	case "medic":
		return r.Medic
	default:
		return 0
	}
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("defaultTag", "Skirmish")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "armorclash")

	viper.SetDefault("influx.enabled", true)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "armorclash-metrics")

	viper.SetDefault("graylog.enabled", true)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("logio.enabled", true)
	viper.SetDefault("logio.host", "localhost")
	viper.SetDefault("logio.port", "28777")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./armorclash.db")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5001/live")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "armorclash-engine")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "15s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("battle.tickRate", 60)
	viper.SetDefault("battle.captureInterval", 5)
	viper.SetDefault("battle.rewards.tank", 100)
	viper.SetDefault("battle.rewards.rifleman", 25)
	viper.SetDefault("battle.rewards.rpg", 40)
	viper.SetDefault("battle.rewards.sniper", 50)
	viper.SetDefault("battle.rewards.medic", 30)

	viper.SetDefault("arena.name", "steel_basin")
	viper.SetDefault("arena.displayName", "Steel Basin")
	viper.SetDefault("arena.author", "ArmorClash")
	viper.SetDefault("arena.width", 2000.0)
	viper.SetDefault("arena.height", 2000.0)

	viper.SetConfigName("armorclash.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the recording backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: durationOrDefault("storage.sqlite.dumpInterval", 3*time.Minute),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		Websocket: WebsocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry export configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   durationOrDefault("otel.batchTimeout", 5*time.Second),
		MetricInterval: durationOrDefault("otel.metricInterval", 15*time.Second),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetBattleConfig returns the simulation loop configuration with nonsense
// values clamped to workable ones.
func GetBattleConfig() BattleConfig {
	tickRate := viper.GetFloat64("battle.tickRate")
	if tickRate <= 0 {
		tickRate = 60
	}
	interval := viper.GetInt("battle.captureInterval")
	if interval < 1 {
		interval = 1
	}
	return BattleConfig{
		TickRate:        tickRate,
		CaptureInterval: uint(interval),
	}
}

// GetInfluxConfig returns the InfluxDB connection configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
	}
}

// GetAPIConfig returns the battle hub upload configuration.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
	}
}

// GetArenaConfig returns the arena dimensions and naming.
func GetArenaConfig() ArenaConfig {
	return ArenaConfig{
		Name:        viper.GetString("arena.name"),
		DisplayName: viper.GetString("arena.displayName"),
		Author:      viper.GetString("arena.author"),
		Width:       viper.GetFloat64("arena.width"),
		Height:      viper.GetFloat64("arena.height"),
	}
}

// GetRewards returns the experience reward bases.
func GetRewards() Rewards {
	return Rewards{
		Tank:     viper.GetInt("battle.rewards.tank"),
		Rifleman: viper.GetInt("battle.rewards.rifleman"),
		RPG:      viper.GetInt("battle.rewards.rpg"),
		Sniper:   viper.GetInt("battle.rewards.sniper"),
		Medic:    viper.GetInt("battle.rewards.medic"),
	}
}

// durationOrDefault parses a duration config value, falling back when the
// value is missing or malformed.
func durationOrDefault(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
