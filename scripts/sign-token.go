package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Mints a development access token for exercising authenticated endpoints
// locally. The secret must match the server's AUTH_JWT_SECRET.
func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/sign-token.go <secret> <auth-id> [ttl-minutes]\n")
		os.Exit(1)
	}

	secret := os.Args[1]
	authID := os.Args[2]

	ttl := 60 * time.Minute
	if len(os.Args) > 3 {
		minutes, err := time.ParseDuration(os.Args[3] + "m")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid ttl-minutes: %v\n", err)
			os.Exit(1)
		}
		ttl = minutes
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   authID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}
