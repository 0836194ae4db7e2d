package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// 环境变量覆盖
const (
	EnvPreset          = "RAINFX_PRESET"
	EnvEmissionRate    = "RAINFX_EMISSION_RATE"
	EnvSpeed           = "RAINFX_SPEED"
	EnvLifetime        = "RAINFX_LIFETIME"
	EnvGravityModifier = "RAINFX_GRAVITY_MODIFIER"
	EnvMaterial        = "RAINFX_MATERIAL"
	EnvFallSpeed       = "RAINFX_FALL_SPEED"
	EnvAutoCreate      = "RAINFX_AUTO_CREATE"
	EnvLogLevel        = "RAINFX_LOG_LEVEL"
	EnvLogFormat       = "RAINFX_LOG_FORMAT"
)

// ApplyEnv 用环境变量覆盖配置
//
// envFile 非空时先通过 godotenv 加载该文件（已存在的环境变量优先）。
// RAINFX_PRESET 最先套用，其余变量再逐项覆盖。覆盖后重新验证配置。
func (c *RainConfig) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	var errs []error

	if v, ok := os.LookupEnv(EnvPreset); ok {
		if err := c.Effect.ApplyPreset(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvPreset, err))
		}
	}

	floatVars := []struct {
		key string
		dst *float64
	}{
		{EnvEmissionRate, &c.Effect.EmissionRate},
		{EnvSpeed, &c.Effect.Speed},
		{EnvLifetime, &c.Effect.Lifetime},
		{EnvGravityModifier, &c.Effect.GravityModifier},
		{EnvFallSpeed, &c.Effect.FallSpeed},
	}
	for _, fv := range floatVars {
		v, ok := os.LookupEnv(fv.key)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", fv.key, err))
			continue
		}
		*fv.dst = f
	}

	if v, ok := os.LookupEnv(EnvAutoCreate); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvAutoCreate, err))
		} else {
			c.Effect.AutoCreateOnStart = b
		}
	}

	if v, ok := os.LookupEnv(EnvMaterial); ok {
		c.Effect.Material = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Logging.Format = v
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return c.Validate()
}
