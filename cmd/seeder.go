package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/wytlabs/cardops/internal/user"
	"golang.org/x/crypto/bcrypt"
)

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			if err := gormDB.Exec("DELETE FROM users").Error; err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing users")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seeds := []user.User{
			{Name: "Arjun Mehta", Email: "arjun@wytlabs.com", Role: user.RoleAdmin, BusinessUnits: []string{"Wytlabs", "Collabx", "DWSG", "Seota", "Infigrowth"}},
			{Name: "Kavita Rao", Email: "kavita@wytlabs.com", Role: user.RoleMIS, BusinessUnits: []string{"Wytlabs", "Collabx", "DWSG", "Seota", "Infigrowth"}},
			{Name: "Priya Nair", Email: "priya@wytlabs.com", Role: user.RoleHandler, BusinessUnits: []string{"Wytlabs"}},
			{Name: "Rohan Shah", Email: "rohan@collabx.com", Role: user.RoleHandler, BusinessUnits: []string{"Collabx", "Seota"}},
			{Name: "Neha Iyer", Email: "neha@wytlabs.com", Role: user.RoleFinance, BusinessUnits: []string{"Wytlabs", "Collabx", "DWSG", "Seota", "Infigrowth"}},
		}

		for _, seed := range seeds {
			var exists int64
			gormDB.Model(&user.User{}).Where("email = ?", seed.Email).Count(&exists)
			if exists > 0 {
				fmt.Printf("user %s already exists, skipping\n", seed.Email)
				continue
			}

			seed.PasswordHash = string(hash)
			seed.IsActive = true
			if err := gormDB.Create(&seed).Error; err != nil {
				log.Fatalf("failed to seed user %s: %v", seed.Email, err)
			}
			fmt.Printf("Seeded %s user: %s\n", seed.Role, seed.Email)
		}
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}
