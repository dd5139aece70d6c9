package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tableside/internal/activity"
	"tableside/internal/auth"
	"tableside/internal/bus"
	"tableside/internal/config"
	"tableside/internal/domain"
	"tableside/internal/logging"
	"tableside/internal/orders"
	"tableside/internal/server"
	"tableside/internal/session"
	"tableside/internal/shifts"
	"tableside/internal/store"
	"tableside/internal/tables"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "tableside",
		Short: "Restaurant point-of-sale coordination service",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	root.AddCommand(serveCmd(&configPath), createUserCmd(&configPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and event broadcaster",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New("tableside")

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := store.Connect(ctx, cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			var b bus.Bus
			if cfg.RabbitMQ.Enabled {
				amqpBus, err := bus.DialAMQP(cfg.RabbitMQ.URL(), log)
				if err != nil {
					return fmt.Errorf("connect rabbitmq: %w", err)
				}
				b = amqpBus
				log.Action("bus_connected", "kind", "amqp")
			} else {
				b = bus.NewMemory()
				log.Action("bus_connected", "kind", "memory")
			}
			defer b.Close()

			audit := activity.New(store.NewActivity(db), log)
			orderRepo := store.NewOrders(db)
			tableRepo := store.NewTables(db)
			shiftRepo := store.NewShifts(db)
			userRepo := store.NewUsers(db)

			ordersSvc := orders.New(orderRepo, b, audit, log)
			tablesSvc := tables.New(tableRepo, orderRepo, b, audit, log, cfg.Blocks.TTL())
			shiftsSvc := shifts.New(shiftRepo, orderRepo, audit, log)
			sessionSvc := session.New(shiftsSvc, orderRepo, tablesSvc)
			tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

			go tablesSvc.RunJanitor(ctx, cfg.Blocks.SweepInterval())

			srv := server.New(ordersSvc, tablesSvc, shiftsSvc, sessionSvc, userRepo, tokens, b, log)
			log.Action("server_starting", "port", cfg.HTTP.Port)
			return srv.Run(ctx, cfg.HTTP.Port, cfg.HTTP.CORSOrigins)
		},
	}
}

func createUserCmd(configPath *string) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Create a cashier or admin account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.UserRole(role)
			if r != domain.RoleCashier && r != domain.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := store.Connect(ctx, cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			hash, err := auth.HashPassword(args[1])
			if err != nil {
				return err
			}
			u := &domain.User{Username: args[0], PasswordHash: hash, Role: r}
			if err := store.NewUsers(db).Create(ctx, u); err != nil {
				return err
			}
			fmt.Printf("created user %s (id=%d, role=%s)\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleCashier), "account role (cashier or admin)")
	return cmd
}
