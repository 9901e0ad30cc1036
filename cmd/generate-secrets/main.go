package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/rail-planner-backend/internal/middleware"
	"github.com/smarttransit/rail-planner-backend/internal/utils"
	"github.com/smarttransit/rail-planner-backend/pkg/jwt"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "generate-secrets",
		Usage: "Generate a JWT secret and mint operator tokens",
		Commands: []*cli.Command{
			{
				Name:  "secret",
				Usage: "Print a new random JWT_SECRET",
				Action: func(c *cli.Context) error {
					secret, err := utils.GenerateSecret(32) // 256-bit
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "Add this to your .env file:")
					fmt.Fprintf(c.App.Writer, "JWT_SECRET=%s\n", secret)
					return nil
				},
			},
			{
				Name:  "operator-token",
				Usage: "Mint a token for the admin endpoints",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "secret", Usage: "JWT secret", Required: true, EnvVars: []string{"JWT_SECRET"}},
					&cli.StringFlag{Name: "name", Value: "operator", Usage: "Operator name recorded in the token"},
					&cli.StringFlag{Name: "roles", Value: middleware.RoleOperator, Usage: "Comma-separated roles"},
					&cli.DurationFlag{Name: "expiry", Value: 30 * 24 * time.Hour, Usage: "Token lifetime"},
				},
				Action: func(c *cli.Context) error {
					var roles []string
					for _, r := range strings.Split(c.String("roles"), ",") {
						if r = strings.TrimSpace(r); r != "" {
							roles = append(roles, r)
						}
					}

					service := jwt.NewService(c.String("secret"), c.Duration("expiry"))
					token, err := service.GenerateOperatorToken(uuid.New(), c.String("name"), roles)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, token)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}
}
