// Application server is the main server for the application
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"quizbank/cmd/server/app"
)

func main() {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	ctx := context.Background()
	if err := app.Run(ctx, os.Getenv, os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
