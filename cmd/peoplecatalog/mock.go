package main

import (
	"os"

	"github.com/spf13/cobra"

	"peoplecatalog/internal/api/dto/v1/person"
	"peoplecatalog/internal/mockapi"
)

var mockSeed bool

var serveMockCmd = &cobra.Command{
	Use:   "serve-mock",
	Short: "Run an in-memory persons API for local development",
	Long: `serve-mock runs an in-memory implementation of the People Catalog API
on the configured port. Records live only for the lifetime of the
process; it exists so the client can be used without the real backend.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		server := mockapi.NewServer(logger, mockapi.RateLimit{RPS: 50, Burst: 100})
		if mockSeed {
			server.Seed(demoPersons()...)
			logger.Info("Seeded %d demo persons", len(demoPersons()))
		}

		if err := server.Run(":" + cfg.MockAPIPort); err != nil {
			logger.Error("Fixture server stopped: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveMockCmd.Flags().BoolVar(&mockSeed, "seed", true, "Seed a few demo records on startup")
}

func demoPersons() []person.Person {
	phone := "+1 555 0100"
	birthDate := "1988-04-12"
	return []person.Person{
		{
			PersonID:       "c0a80121-7ac0-4e1c-9ab8-0d2f4a1b9e01",
			FirstName:      "John",
			LastName:       "Doe",
			Email:          "john.doe@example.com",
			Phone:          &phone,
			BirthDate:      &birthDate,
			DocumentNumber: "DOC-1001",
			IsActive:       true,
		},
		{
			PersonID:       "c0a80121-7ac0-4e1c-9ab8-0d2f4a1b9e02",
			FirstName:      "Maria",
			LastName:       "Lopez",
			Email:          "maria.lopez@example.com",
			DocumentNumber: "DOC-1002",
			IsActive:       true,
		},
		{
			PersonID:       "c0a80121-7ac0-4e1c-9ab8-0d2f4a1b9e03",
			FirstName:      "Ada",
			LastName:       "Miller",
			Email:          "ada.miller@example.com",
			DocumentNumber: "DOC-1003",
			IsActive:       false,
		},
	}
}
