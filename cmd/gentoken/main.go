// cmd/gentoken: issues an access token for local testing.
// Uso: go run ./cmd/gentoken -rol cajero -usuario <uuid>
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/config"
	"github.com/JonyGudino21/pharma-back/internal/middleware"

	"github.com/google/uuid"
)

func main() {
	rol := flag.String("rol", middleware.RolAdministrador, "cajero | supervisor | administrador")
	usuario := flag.String("usuario", "", "user id (random when empty)")
	username := flag.String("username", "demo", "username claim")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	id := uuid.New()
	if *usuario != "" {
		if id, err = uuid.Parse(*usuario); err != nil {
			fmt.Fprintln(os.Stderr, "usuario:", err)
			os.Exit(1)
		}
	}

	token, err := middleware.SignToken(cfg.JWTSecret, id, *username, *rol, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
