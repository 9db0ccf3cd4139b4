/*
Gzlserve starts the parse-as-a-service HTTP server and begins listening for
connections.

Usage:

	gzlserve [flags]
	gzlserve [flags] -c CONFIG.toml

If no API key is configured, one is generated and printed once at startup;
since it is never persisted, it (and every token issued against it) becomes
invalid as soon as the server exits. This is suitable for local testing, but
a real deployment must set server.api_key in its config file.

The flags are:

	-v, --version
		Print the version and exit.

	-c, --config FILE
		Load server/engine tuning from the TOML file at FILE. If not given,
		built-in defaults are used (see the config package).

	-l, --listen ADDRESS
		Override the bind address from the config file or its default.
*/
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/sablefin/parsevm/config"
	"github.com/sablefin/parsevm/httpsrv"
	"github.com/sablefin/parsevm/store"
)

const version = "0.1.0"

var (
	flagVersion = pflag.BoolP("version", "v", false, "Print the version and exit")
	flagConfig  = pflag.StringP("config", "c", "", "Load server/engine tuning from this TOML file")
	flagListen  = pflag.StringP("listen", "l", "", "Override the configured bind address")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("gzlserve %s\n", version)
		return
	}

	cfg := config.Config{}.FillDefaults()
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			log.Fatalf("FATAL could not load config: %s", err)
		}
		cfg = loaded
	}
	if *flagListen != "" {
		cfg.Server.BindAddress = *flagListen
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL invalid config: %s", err)
	}

	st, err := store.Open(cfg.SQLite.DataDir)
	if err != nil {
		log.Fatalf("FATAL could not open grammar store: %s", err)
	}
	defer st.Close()

	apiKey := os.Getenv("GZL_API_KEY")
	if apiKey == "" {
		apiKey = generateAPIKey()
		log.Printf("WARN  no GZL_API_KEY set; generated one-time key: %s", apiKey)
	}
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("FATAL could not hash API key: %s", err)
	}

	srv := httpsrv.New(st, []byte(cfg.Server.JWTSecret), apiKeyHash,
		time.Duration(cfg.Server.UnauthDelayMillis)*time.Millisecond)

	log.Printf("INFO  gzlserve %s listening on %s", version, cfg.Server.BindAddress)
	if err := http.ListenAndServe(cfg.Server.BindAddress, srv.Router()); err != nil {
		log.Fatalf("FATAL %s", err)
	}
}

func generateAPIKey() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("FATAL could not generate API key: %s", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
