// Package config loads the JSON description of how the host reaches the
// WiFi module.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"wincbus/core"
)

const (
	BackendPeriph = "periph"
	BackendBridge = "bridge"

	BusSPI = "spi"
	BusI2C = "i2c"
)

// Config selects a backend and bus and carries their settings.
type Config struct {
	Backend   string       `json:"backend"`
	Bus       string       `json:"bus"`
	SPI       SPIConfig    `json:"spi"`
	I2C       I2CConfig    `json:"i2c"`
	Pins      PinConfig    `json:"pins"`
	Serial    SerialConfig `json:"serial"`
	TimeoutMS int          `json:"timeout_ms"`
}

// SPIConfig names the port and its framing. Port is a spidev name for the
// periph backend; Bus is the MCU bus number for the bridge backend.
type SPIConfig struct {
	Port      string `json:"port"`
	Bus       uint32 `json:"bus"`
	Mode      uint8  `json:"mode"`
	Frequency uint32 `json:"frequency"`
	LSBFirst  bool   `json:"lsb_first"`
}

type I2CConfig struct {
	Port      string `json:"port"`
	Bus       uint32 `json:"bus"`
	Address   uint8  `json:"address"`
	Frequency uint32 `json:"frequency"`
}

// PinConfig holds host GPIO names. Empty pins are not driven.
type PinConfig struct {
	ChipSelect string `json:"chip_select"`
	ChipEnable string `json:"chip_enable"`
	ResetN     string `json:"reset_n"`
}

type SerialConfig struct {
	Device string `json:"device"`
	Baud   int    `json:"baud"`
}

// LoadConfig parses a JSON configuration and fills in defaults
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	if err := json.Unmarshal(jsonData, &config); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFile reads and parses a configuration file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return LoadConfig(data)
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *Config) {
	if config.Backend == "" {
		config.Backend = BackendPeriph
	}
	if config.Bus == "" {
		config.Bus = BusSPI
	}

	spiDefault := core.DefaultSPIConfig()
	if config.SPI.Frequency == 0 {
		config.SPI.Frequency = spiDefault.Frequency
	}

	i2cDefault := core.DefaultI2CConfig()
	if config.I2C.Address == 0 {
		config.I2C.Address = uint8(i2cDefault.Address)
	}
	if config.I2C.Frequency == 0 {
		config.I2C.Frequency = i2cDefault.Frequency
	}

	if config.Serial.Device == "" {
		config.Serial.Device = "/dev/ttyACM0"
	}
	if config.Serial.Baud == 0 {
		config.Serial.Baud = 250000
	}

	if config.TimeoutMS == 0 {
		config.TimeoutMS = int(core.DefaultTimeout / time.Millisecond)
	}
}

// Validate rejects unknown backends and buses and out of range values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPeriph, BackendBridge:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	switch c.Bus {
	case BusSPI, BusI2C:
	default:
		return errors.Errorf("unknown bus %q", c.Bus)
	}
	if c.SPI.Mode > 3 {
		return errors.Errorf("spi mode %d out of range", c.SPI.Mode)
	}
	if c.I2C.Address > 0x7F {
		return errors.Errorf("i2c address 0x%02x is not 7-bit", c.I2C.Address)
	}
	if c.TimeoutMS < 0 {
		return errors.New("timeout_ms must not be negative")
	}
	return nil
}

// SPIBusConfig returns the core bus configuration.
func (c *Config) SPIBusConfig() core.SPIConfig {
	cfg := core.DefaultSPIConfig()
	cfg.Mode = core.SPIMode(c.SPI.Mode)
	cfg.Frequency = c.SPI.Frequency
	if c.SPI.LSBFirst {
		cfg.BitOrder = core.LSBFirst
	}
	return cfg
}

// I2CBusConfig returns the core bus configuration.
func (c *Config) I2CBusConfig() core.I2CConfig {
	return core.I2CConfig{
		Address:   core.I2CAddress(c.I2C.Address),
		Frequency: c.I2C.Frequency,
	}
}

// Timeout returns the per-transfer timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
