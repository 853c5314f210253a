// Command vapidgen prints a fresh VAPID key pair for the environment.
package main

import (
	"fmt"
	"log"

	"github.com/dhollis/peckish/internal/webpush"
)

func main() {
	pub, priv, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		log.Fatalf("generate keys: %v", err)
	}
	fmt.Printf("VAPID_PUBLIC_KEY=%s\n", pub)
	fmt.Printf("VAPID_PRIVATE_KEY=%s\n", priv)
}
