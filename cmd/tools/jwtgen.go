package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"asset-inventory-api/internal/auth"
	"asset-inventory-api/internal/config"
)

func main() {
	var (
		username   = flag.String("user", "admin", "Username carried in the token")
		expiryMins = flag.Int("expiry", 300, "Token expiry in minutes (default: 5 hours)")
		secret     = flag.String("secret", "", "Signing secret (overrides SECRET_KEY env var)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *secret != "" {
		cfg.SecretKey = *secret
	}

	tokens := auth.NewTokenManager(cfg.SecretKey, time.Duration(*expiryMins)*time.Minute)
	if err := tokens.ValidateConfig(); err != nil {
		log.Fatalf("Invalid token settings: %v", err)
	}

	token, err := tokens.Issue(*username)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("JWT Token generated successfully!\n\n")
	fmt.Printf("Username: %s\n", *username)
	fmt.Printf("Expiry: %d minutes\n", *expiryMins)
	fmt.Printf("\nToken:\n%s\n\n", token)

	fmt.Printf("Usage example:\n")
	fmt.Printf("curl -X POST -H \"Authorization: Bearer %s\" http://localhost:5000/authen\n", token)
}
