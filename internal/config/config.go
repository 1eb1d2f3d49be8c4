package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig содержит конфигурацию приложения
type AppConfig struct {
	ServerPort  string
	KafkaBroker string
	KafkaTopic  string
	GinMode     string
	Database    DatabaseConfig
	Logging     LoggerConfig
	Station     StationConfig
	SFC         SFCConfig
}

// LoggerConfig содержит настройки логгера
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// DatabaseConfig содержит конфигурацию для подключения к базе данных
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

// StationConfig описывает, откуда станция берет тест-планы и инструменты.
type StationConfig struct {
	PlansDir            string // Директория с JSON-планами, по одному файлу на station_id
	InstrumentsFile     string // JSON-реестр инструментов и legacy-команд
	InstrumentTimeoutMs int    // Таймаут по умолчанию для операций с инструментами
	LegacyTimeoutMs     int    // Таймаут для внешних legacy-команд
	RelayDevice         string // Последовательный порт платы реле, пусто - реле нет
	RelayBaud           int
	ChassisDevice       string // Последовательный порт контроллера поворотного шасси
	ChassisBaud         int
	ProtocolLogLevel    string // Уровень logrus для протокольных клиентов
}

// SFCConfig содержит настройки клиента shop-floor-control.
type SFCConfig struct {
	Enable    bool
	Mode      string // webservice / url
	Endpoint  string
	TimeoutMs int
}

// LoadConfiguration загружает конфигурацию из .env файла или переменных окружения
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	config := &AppConfig{
		ServerPort:  getEnv("APP_PORT", "8082"),
		KafkaBroker: getEnv("KAFKA_BROKER", "localhost:9092"),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "pdtool_results"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Username: getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "root"),
			DBName:   getEnv("DB_NAME", "pdtool_db"),
		},
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", "./logs"),
			Level:      getEnv("LOGGER_LOG_LEVEL", "DEBUG"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
		Station: StationConfig{
			PlansDir:            getEnv("STATION_PLANS_DIR", "./plans"),
			InstrumentsFile:     getEnv("STATION_INSTRUMENTS_FILE", "./instruments.json"),
			InstrumentTimeoutMs: getEnvAsInt("INSTRUMENT_TIMEOUT_MS", 5000),
			LegacyTimeoutMs:     getEnvAsInt("LEGACY_COMMAND_TIMEOUT_MS", 30000),
			RelayDevice:         getEnv("STATION_RELAY_DEVICE", ""),
			RelayBaud:           getEnvAsInt("STATION_RELAY_BAUD", 9600),
			ChassisDevice:       getEnv("STATION_CHASSIS_DEVICE", ""),
			ChassisBaud:         getEnvAsInt("STATION_CHASSIS_BAUD", 115200),
			ProtocolLogLevel:    getEnv("STATION_PROTOCOL_LOG_LEVEL", "info"),
		},
		SFC: SFCConfig{
			Enable:    getEnvAsBool("SFC_ENABLE", false),
			Mode:      getEnv("SFC_MODE", "webservice"),
			Endpoint:  getEnv("SFC_ENDPOINT", "http://localhost:9090/sfc"),
			TimeoutMs: getEnvAsInt("SFC_TIMEOUT_MS", 5000),
		},
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, _ := strconv.ParseBool(value)
	return val
}
