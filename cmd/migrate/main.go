package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cbtarena/cbtarena-backend/internal/config"
)

func main() {
	var dir string
	flag.StringVar(&dir, "path", "migrations", "directory containing migration files")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("init migrations: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch cmd := args[0]; cmd {
	case "up":
		report(m.Up(), "schema is up to date")
	case "down":
		report(m.Down(), "schema rolled all the way back")
	case "steps":
		n := requireInt(args, "steps")
		report(m.Steps(n), fmt.Sprintf("applied %d step(s)", n))
	case "force":
		v := requireInt(args, "force")
		report(m.Force(v), fmt.Sprintf("forced version to %d", v))
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("version: %v", err)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	default:
		usage()
		os.Exit(2)
	}
}

func report(err error, okMsg string) {
	switch {
	case err == nil:
		fmt.Println(okMsg)
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println("no change")
	default:
		log.Fatalf("migration failed: %v", err)
	}
}

func requireInt(args []string, cmd string) int {
	if len(args) < 2 {
		log.Fatalf("%s requires a numeric argument", cmd)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("%s: invalid number %q", cmd, args[1])
	}
	return n
}

func usage() {
	fmt.Println("Usage: migrate [-path dir] <up|down|steps N|version|force V>")
	flag.PrintDefaults()
}
