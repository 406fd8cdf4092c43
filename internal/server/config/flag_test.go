package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

	os.Args = []string{"cmd",
		"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-w", "worker",
		"-t", "30", "-r", "60", "-pv", "15",
		"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		"-gi", "client-id", "-gs", "client-secret", "-gr", "http://cb", "-f", "http://front",
		"-rl", "10",
	}

	config := &Config{}
	parseFlags(config)

	assert.Equal(t, "127.0.0.1:9090", config.EndpointAddrHTTP)
	assert.Equal(t, "db", config.DatabaseDSN)
	assert.Equal(t, "secret", config.SecretKey)
	assert.Equal(t, "worker", config.WorkerKey)
	assert.Equal(t, 30*time.Minute, config.AccessTokenValidityDuration)
	assert.Equal(t, 60*time.Minute, config.RefreshTokenValidityDuration)
	assert.Equal(t, 15*time.Minute, config.PresignValidityDuration)
	assert.Equal(t, "user", config.S3RootUser)
	assert.Equal(t, "password", config.S3RootPassword)
	assert.Equal(t, "bucket", config.S3Bucket)
	assert.Equal(t, "us-west-1", config.S3Region)
	assert.Equal(t, "http://endpoint", config.S3BaseEndpoint)
	assert.Equal(t, "client-id", config.GoogleClientID)
	assert.Equal(t, "client-secret", config.GoogleClientSecret)
	assert.Equal(t, "http://cb", config.GoogleRedirectURL)
	assert.Equal(t, "http://front", config.FrontendBaseURL)
	assert.Equal(t, 10, config.AuthRatePerMinute)
}

func TestParseFlags_KeepsDefaultsWhenAbsent(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	os.Args = []string{"cmd"}

	config := &Config{}
	config.LoadDefaults()
	parseFlags(config)

	assert.Equal(t, ":8080", config.EndpointAddrHTTP)
	assert.Equal(t, 1*time.Hour, config.AccessTokenValidityDuration)
}
