package main

import (
	"context"
	"flag"
	"log"
	"log/syslog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/migadu/sieve/db"
	"github.com/migadu/sieve/server/managesieve"
)

func main() {
	// Initialize with application defaults
	cfg := newDefaultConfig()

	// --- Define Command-Line Flags ---
	// These flags will override values from the config file if set.
	// Their default values are set from the initial `cfg` for consistent -help messages.

	fLogOutput := flag.String("logoutput", "stderr", "Log output destination: 'syslog' or 'stderr' (overrides config)")
	configPath := flag.String("config", "config.toml", "Path to TOML configuration file")

	fInsecureAuth := flag.Bool("insecure-auth", cfg.InsecureAuth, "Allow authentication without TLS (overrides config)")
	fDebug := flag.Bool("debug", cfg.Debug, "Print all commands and responses (overrides config)")

	fDbHost := flag.String("dbhost", cfg.Database.Host, "Database host (overrides config)")
	fDbPort := flag.String("dbport", cfg.Database.Port, "Database port (overrides config)")
	fDbUser := flag.String("dbuser", cfg.Database.User, "Database user (overrides config)")
	fDbPassword := flag.String("dbpassword", cfg.Database.Password, "Database password (overrides config)")
	fDbName := flag.String("dbname", cfg.Database.Name, "Database name (overrides config)")

	fStartManageSieve := flag.Bool("managesieve", cfg.Servers.StartManageSieve, "Start the ManageSieve server (overrides config)")
	fManagesieveAddr := flag.String("managesieveaddr", cfg.Servers.ManageSieveAddr, "ManageSieve server address (overrides config)")

	fSMTPRelay := flag.String("smtprelay", cfg.SMTP.Relay, "Upstream SMTP relay for redirect/vacation delivery (overrides config)")
	fPostmaster := flag.String("postmaster", cfg.SMTP.PostmasterAddress, "Postmaster address reported in vacation replies (overrides config)")

	fTlsInsecureSkipVerify := flag.Bool("tlsinsecureskipverify", cfg.TLS.InsecureSkipVerify, "Skip TLS cert verification (overrides config)")

	fManageSieveTLS := flag.Bool("managesievetls", cfg.TLS.ManageSieve.Enable, "Enable TLS for ManageSieve (overrides config)")
	fManageSieveTLSCert := flag.String("managesievetlscert", cfg.TLS.ManageSieve.CertFile, "TLS cert for ManageSieve (overrides config)")
	fManageSieveTLSKey := flag.String("managesievetlskey", cfg.TLS.ManageSieve.KeyFile, "TLS key for ManageSieve (overrides config)")

	flag.Parse()

	// --- Load Configuration from TOML File ---
	// Values from the TOML file will override the application defaults.
	if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
		if os.IsNotExist(err) {
			if isFlagSet("config") {
				log.Fatalf("Error: Specified configuration file '%s' not found: %v", *configPath, err)
			} else {
				log.Printf("WARNING: Default configuration file '%s' not found. Using application defaults and command-line flags.", *configPath)
			}
		} else {
			log.Fatalf("Error parsing configuration file '%s': %v", *configPath, err)
		}
	} else {
		log.Printf("Loaded configuration from %s", *configPath)
	}

	// --- Initialize Logging ---
	var initialLogMessage string
	switch *fLogOutput {
	case "syslog":
		syslogWriter, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, "sieved")
		if err != nil {
			log.Printf("WARNING: Failed to connect to syslog: %v. Logging will fall back to standard error.", err)
			initialLogMessage = "sieved starting. Logging to standard error (syslog connection failed)."
		} else {
			log.SetOutput(syslogWriter)
			log.SetFlags(0)
			defer syslogWriter.Close()
			initialLogMessage = "sieved starting. Logging initialized to syslog."
		}
	case "stderr":
		initialLogMessage = "sieved starting. Logging initialized to standard error."
	default:
		log.Printf("WARNING: Invalid logoutput value '%s'. Application will log to standard error.", *fLogOutput)
		initialLogMessage = "sieved starting. Logging to standard error (invalid logoutput)."
	}
	log.Println(initialLogMessage)

	// --- Apply Command-Line Flag Overrides ---
	// If a flag was explicitly set on the command line, its value overrides both
	// application defaults and values from the TOML file.
	if isFlagSet("insecure-auth") {
		cfg.InsecureAuth = *fInsecureAuth
	}
	if isFlagSet("debug") {
		cfg.Debug = *fDebug
	}

	if isFlagSet("dbhost") {
		cfg.Database.Host = *fDbHost
	}
	if isFlagSet("dbport") {
		cfg.Database.Port = *fDbPort
	}
	if isFlagSet("dbuser") {
		cfg.Database.User = *fDbUser
	}
	if isFlagSet("dbpassword") {
		cfg.Database.Password = *fDbPassword
	}
	if isFlagSet("dbname") {
		cfg.Database.Name = *fDbName
	}

	if isFlagSet("managesieve") {
		cfg.Servers.StartManageSieve = *fStartManageSieve
	}
	if isFlagSet("managesieveaddr") {
		cfg.Servers.ManageSieveAddr = *fManagesieveAddr
	}

	if isFlagSet("smtprelay") {
		cfg.SMTP.Relay = *fSMTPRelay
	}
	if isFlagSet("postmaster") {
		cfg.SMTP.PostmasterAddress = *fPostmaster
	}

	if isFlagSet("tlsinsecureskipverify") {
		cfg.TLS.InsecureSkipVerify = *fTlsInsecureSkipVerify
	}

	if isFlagSet("managesievetls") {
		cfg.TLS.ManageSieve.Enable = *fManageSieveTLS
	}
	if isFlagSet("managesievetlscert") {
		cfg.TLS.ManageSieve.CertFile = *fManageSieveTLSCert
	}
	if isFlagSet("managesievetlskey") {
		cfg.TLS.ManageSieve.KeyFile = *fManageSieveTLSKey
	}

	// --- Application Logic using cfg ---

	if !cfg.Servers.StartManageSieve {
		log.Fatal("No servers enabled. Please enable the ManageSieve server.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT and SIGTERM for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		log.Printf("Received signal: %s, shutting down...", sig)
		cancel()
	}()

	// Initialize the database connection
	log.Printf("Connecting to database at %s:%s as user %s, using database %s", cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Name)
	database, err := db.NewDatabase(ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer database.Close()

	hostname, _ := os.Hostname()

	errChan := make(chan error, 1)

	certFile, keyFile := "", ""
	if cfg.TLS.ManageSieve.Enable {
		certFile, keyFile = cfg.TLS.ManageSieve.CertFile, cfg.TLS.ManageSieve.KeyFile
	}
	go startManageSieveServer(ctx, hostname, cfg.Servers.ManageSieveAddr, database, cfg.InsecureAuth, cfg.Debug, errChan, certFile, keyFile, cfg.TLS.InsecureSkipVerify)

	select {
	case <-ctx.Done():
		log.Println("Shutting down sieved...")
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}

func startManageSieveServer(ctx context.Context, hostname string, addr string, database *db.Database, insecureAuth bool, debug bool, errChan chan error, tlsCertFile, tlsKeyFile string, insecureSkipVerify bool) {
	s, err := managesieve.New(ctx, hostname, addr, database, insecureAuth, debug, tlsCertFile, tlsKeyFile, insecureSkipVerify)
	if err != nil {
		errChan <- err
		return
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down ManageSieve server...")
		s.Close()
	}()

	s.Start(errChan)
}

// isFlagSet reports whether the named flag was explicitly passed on the
// command line, so TOML and default values aren't clobbered by a flag's
// zero value.
func isFlagSet(name string) bool {
	isSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			isSet = true
		}
	})
	return isSet
}
