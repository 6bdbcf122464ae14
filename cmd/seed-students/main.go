package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/database"
	"github.com/cbtarena/cbtarena-backend/internal/logger"
	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)

	fmt.Println("=== Seeding 50 Students ===")

	className := "XII IPA 2"

	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
		"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
		"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
		"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
		"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
		"Bagas Saputra", "Citra Kirana", "Dimas Anggara", "Elisa Novita", "Fikri Maulana",
		"Gali Rakasiwi", "Hani Hanifah", "Iqbal Ramadhan", "Jasmine Azzahra", "Kevin Sanjaya",
		"Larasati Dewi", "Miko Pambudi", "Nia Ramadhani", "Oscar Lawalata", "Puput Melati",
		"Reza Rahadian", "Sari Nila", "Tigor Siahaan", "Utari Maharani", "Vicky Prasetyo",
	}

	// One shared seed password keeps the run fast; students change it on
	// first login.
	hash, err := bcrypt.GenerateFromPassword([]byte("ujianhebat"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	successCount := 0
	for i := 0; i < 50; i++ {
		student := &model.Student{
			NISN:         fmt.Sprintf("00%06d", i+1),
			Name:         names[i],
			ClassName:    className,
			PasswordHash: string(hash),
		}

		if err := studentRepo.Create(ctx, student); err != nil {
			fmt.Printf("Error creating student %s (NISN: %s): %v\n", student.Name, student.NISN, err)
		} else {
			successCount++
			if (i+1)%10 == 0 {
				fmt.Printf("Created %d students...\n", i+1)
			}
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/50 students.\n", successCount)
}
