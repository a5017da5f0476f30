// Command seed writes a small demo data set: two toll accounts and one
// verified user, so the API has something to serve on a fresh install.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Navjot67/tolls-app/config"
	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/infrastructure/jsonstore"
	"github.com/Navjot67/tolls-app/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	accountStore := jsonstore.NewAccountStore(cfg.AccountsFile, logger)
	userStore := jsonstore.NewUserStore(cfg.UsersFile, logger)

	accounts := []entity.Account{
		{
			AccountNumber:   "752918782",
			PlateNumber:     "DEMO1234",
			Email:           "demo@example.com",
			Sources:         []string{entity.SourceNY},
			TollBillNumbers: []string{},
		},
		{
			ViolationNumber:   "T081234567890",
			NJViolationNumber: "T081234567890",
			PlateNumber:       "DEMO5678",
			NJPlateNumber:     "DEMO5678",
			Email:             "demo@example.com",
			Sources:           []string{entity.SourceNJ},
			TollBillNumbers:   []string{},
		},
	}
	if !accountStore.Save(accounts, nil) {
		log.Fatal("failed to seed accounts")
	}
	fmt.Printf("seeded %d account(s) into %s\n", len(accounts), cfg.AccountsFile)

	email := "demo@example.com"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	users := []entity.User{
		{
			Email:         email,
			PasswordHash:  hash,
			Name:          "Demo User",
			EmailVerified: true,
			CreatedAt:     time.Now().Format(entity.ArchiveTimeLayout),
			Accounts:      []entity.AccountSummary{},
		},
	}
	if !userStore.Save(users) {
		log.Fatal("failed to seed user")
	}
	fmt.Printf("seeded user: email=%s password=%s\n", email, password)
}
