package util

import (
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
	"log"
	"os"
	"strconv"
)

const Name = "dumbo"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host          string
		HttpPort      int    `yaml:"httpPort"`
		Domain        string `yaml:"domain"`
		Account       string `yaml:"account"`
		Protocol      string `yaml:"protocol"`
		DatabasePath  string `yaml:"databasePath"`
		PrivateKey    string `yaml:"privateKeyFile"`
		PublicKey     string `yaml:"publicKeyFile"`
		AdminUser     string `yaml:"adminUser"`
		AdminPass     string `yaml:"adminPass"`
		WebhookSecret string `yaml:"webhookSecret"`
	}
}

// ActorIRI returns the canonical URL of the local actor, e.g.
// "https://example.com/users/alice".
func (c *AppConfig) ActorIRI() string {
	return fmt.Sprintf("%s://%s/users/%s", c.Conf.Protocol, c.Conf.Domain, c.Conf.Account)
}

// BaseURL returns the server's base URL, e.g. "https://example.com".
func (c *AppConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s", c.Conf.Protocol, c.Conf.Domain)
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

	if envHost := os.Getenv("DUMBO_HOST"); envHost != "" {
		c.Conf.Host = envHost
	}

	if envHttpPort := os.Getenv("DUMBO_HTTPPORT"); envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.HttpPort = v
	}

	if envDomain := os.Getenv("DUMBO_DOMAIN"); envDomain != "" {
		c.Conf.Domain = envDomain
	}

	if envAccount := os.Getenv("DUMBO_ACCOUNT"); envAccount != "" {
		c.Conf.Account = envAccount
	}

	if envProtocol := os.Getenv("DUMBO_PROTOCOL"); envProtocol != "" {
		c.Conf.Protocol = envProtocol
	}

	if envDatabase := os.Getenv("DUMBO_DATABASE"); envDatabase != "" {
		c.Conf.DatabasePath = envDatabase
	}

	if envPrivateKey := os.Getenv("DUMBO_PRIVATE_KEY"); envPrivateKey != "" {
		c.Conf.PrivateKey = envPrivateKey
	}

	if envPublicKey := os.Getenv("DUMBO_PUBLIC_KEY"); envPublicKey != "" {
		c.Conf.PublicKey = envPublicKey
	}

	if envAdminUser := os.Getenv("DUMBO_ADMIN_USER"); envAdminUser != "" {
		c.Conf.AdminUser = envAdminUser
	}

	if envAdminPass := os.Getenv("DUMBO_ADMIN_PASS"); envAdminPass != "" {
		c.Conf.AdminPass = envAdminPass
	}

	if envWebhookSecret := os.Getenv("DUMBO_WEBHOOK_SECRET"); envWebhookSecret != "" {
		c.Conf.WebhookSecret = envWebhookSecret
	}

	if c.Conf.Protocol == "" {
		c.Conf.Protocol = "https"
	}

	return c, nil
}
