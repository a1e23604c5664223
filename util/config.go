package util

import (
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
	"log"
	"os"
	"strconv"
)

const Name = "recomendo"
const ConfigFileName = "config.yaml"
const TokenFileName = "token"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		ApiBaseUrl     string `yaml:"apiBaseUrl"`
		Host           string
		SshPort        int  `yaml:"sshPort"`
		HttpPort       int  `yaml:"httpPort"`
		ServeSsh       bool `yaml:"serveSsh"`
		EmbeddedServer bool `yaml:"embeddedServer"`
	}
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// Try to resolve config file path (local first, then user dir)
	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	// Try to read from resolved path
	buf, err = os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, use embedded config and create user config file
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		// Try to write default config to user config directory
		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	envApiBaseUrl := os.Getenv("RECOMENDO_APIBASEURL")
	envHost := os.Getenv("RECOMENDO_HOST")
	envSshPort := os.Getenv("RECOMENDO_SSHPORT")
	envHttpPort := os.Getenv("RECOMENDO_HTTPPORT")
	envServeSsh := os.Getenv("RECOMENDO_SERVE_SSH")
	envEmbedded := os.Getenv("RECOMENDO_EMBEDDED_SERVER")

	if envApiBaseUrl != "" {
		c.Conf.ApiBaseUrl = envApiBaseUrl
	}

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envSshPort != "" {
		v, err := strconv.Atoi(envSshPort)
		if err != nil {
			fmt.Println(err)
		} else {
			c.Conf.SshPort = v
		}
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		} else {
			c.Conf.HttpPort = v
		}
	}

	if envServeSsh == "true" {
		c.Conf.ServeSsh = true
	}

	if envEmbedded == "true" {
		c.Conf.EmbeddedServer = true
	}

	return c, nil
}
