package config

import (
	"crypto/tls"
	"fmt"

	"github.com/artie-labs/transfer/lib/stringutil"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	DisableTLS bool   `yaml:"disableTLS"`
}

func (m *MongoDB) ToClientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(m.URI)
	if m.Username != "" && m.Password != "" {
		opts = opts.SetAuth(options.Credential{
			Username: m.Username,
			Password: m.Password,
		})
	}

	if !m.DisableTLS {
		opts = opts.SetTLSConfig(&tls.Config{})
	}
	return opts
}

func (m *MongoDB) Validate() error {
	if m == nil {
		return fmt.Errorf("the MongoDB config is nil")
	}

	if stringutil.Empty(m.URI, m.Database) {
		return fmt.Errorf("one of the MongoDB settings is empty: uri, database")
	}

	return nil
}
