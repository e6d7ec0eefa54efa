package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"netecho/internal/shared/types"
)

const (
	EnvLogLevel   = "NETECHO_LOG_LEVEL"
	EnvCloseDelay = "NETECHO_CLOSE_DELAY_MS"
)

// Load 返回默认配置，并在 fileName 存在时用 ini 文件覆盖。
// 空文件名或不存在的文件都不是错误。
func Load(fileName string) (*types.Config, error) {
	cfg := types.NewDefaultConfig()
	if fileName != "" {
		if err := LoadIni(cfg, fileName); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadIni 加载 ini 行为配置文件，未出现的键保留 cfg 中已有的值。
func LoadIni(cfg *types.Config, fileName string) error {
	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	iniFile, err := ini.Load(fileName)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", fileName, err)
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map config file %s: %w", fileName, err)
	}

	// .env 与配置文件放在同一目录下，可选
	envPath := filepath.Join(filepath.Dir(fileName), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	return nil
}

func applyEnv(cfg *types.Config) {
	overrideFromEnvString(&cfg.LogConf.Level, EnvLogLevel)
	overrideFromEnvInt(&cfg.ServerConf.CloseDelayMS, EnvCloseDelay)
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
