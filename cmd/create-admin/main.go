package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/database"
	"github.com/cbtarena/cbtarena-backend/internal/logger"
	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
)

// create-admin provisions an administrator account interactively. It is the
// only way to create the first admin, since the admin API itself requires
// an admin token.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	name, err := prompt("Name")
	if err != nil {
		fail(err)
	}
	email, err := prompt("Email")
	if err != nil {
		fail(err)
	}

	fmt.Print("Password (hidden): ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fail(fmt.Errorf("read password: %w", err))
	}
	if len(raw) < 6 {
		fail(fmt.Errorf("password must be at least 6 characters"))
	}

	hash, err := bcrypt.GenerateFromPassword(raw, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	admin := &model.Admin{Name: name, Email: email, PasswordHash: string(hash)}
	if err := repository.NewAdminRepository(pool).Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("create admin")
	}

	fmt.Printf("admin %q (%s) created, id=%d\n", admin.Name, admin.Email, admin.ID)
}

func prompt(label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return value, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
