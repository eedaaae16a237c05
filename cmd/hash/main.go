// Package main is a utility for generating bcrypt hashes of API key secrets.
// The marketplace stores only bcrypt hashes of key secrets — never the raw
// values — so this tool is used when manually inserting or verifying key
// records in the database without running the full server.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/service-marketplace/service-marketplace/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <key-secret>", os.Args[0])
	}
	secret := os.Args[1]

	hash, err := auth.HashAPIKey(secret)
	if err != nil {
		log.Fatalf("hashing failed: %v", err)
	}
	fmt.Println(hash)
	fmt.Println("prefix:", auth.DisplayPrefix(secret))
}
