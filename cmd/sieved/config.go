package main

// Config holds all configuration for the application.
type Config struct {
	InsecureAuth bool `toml:"insecure_auth"`
	Debug        bool `toml:"debug"`

	Database struct {
		Host     string `toml:"host"`
		Port     string `toml:"port"`
		User     string `toml:"user"`
		Password string `toml:"password"`
		Name     string `toml:"name"`
	} `toml:"database"`

	Servers struct {
		StartManageSieve bool   `toml:"start_managesieve"`
		ManageSieveAddr  string `toml:"managesieve_addr"`
	} `toml:"servers"`

	SMTP struct {
		Relay             string `toml:"relay"`
		PostmasterAddress string `toml:"postmaster_address"`
	} `toml:"smtp"`

	TLS struct {
		InsecureSkipVerify bool `toml:"insecure_skip_verify"`
		ManageSieve        struct {
			Enable   bool   `toml:"enable"`
			CertFile string `toml:"cert_file"`
			KeyFile  string `toml:"key_file"`
		} `toml:"managesieve"`
	} `toml:"tls"`
}

// newDefaultConfig creates a Config struct with default values.
func newDefaultConfig() Config {
	cfg := Config{
		InsecureAuth: false,
		Debug:        false,
	}
	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.User = "postgres"
	cfg.Database.Password = ""
	cfg.Database.Name = "sieve_mail_db"

	cfg.Servers.StartManageSieve = true
	cfg.Servers.ManageSieveAddr = ":4190"

	cfg.SMTP.Relay = "localhost:25"
	cfg.SMTP.PostmasterAddress = ""

	cfg.TLS.InsecureSkipVerify = false
	cfg.TLS.ManageSieve.Enable = false

	return cfg
}
