// AngelaMos | 2026
// main.go

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/carterperez-dev/component-store/internal/auth"
)

func main() {
	dir := flag.String("dir", "keys", "directory to write the key pair into")
	force := flag.Bool("force", false, "overwrite an existing key pair")
	flag.Parse()

	if err := run(*dir, *force); err != nil {
		slog.Error("keygen failed", "error", err)
		os.Exit(1)
	}
}

func run(dir string, force bool) error {
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	if !force {
		if _, err := os.Stat(privatePath); err == nil {
			return fmt.Errorf("%s already exists, pass -force to replace it", privatePath)
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
		return err
	}

	slog.Info("ES256 key pair written",
		"private_key", privatePath,
		"public_key", publicPath,
	)
	return nil
}
