package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/frontdeskhq/frontdesk/internal/adapter/postgres"
	"github.com/frontdeskhq/frontdesk/internal/config"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/service"
)

// runAdmin dispatches admin subcommands (create-tenant, list-tenants,
// rotate-key, set-channel).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	case "rotate-key":
		return runAdminRotateKey(args[1:])
	case "set-channel":
		return runAdminSetChannel(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: frontdesk admin <command> [options]

Commands:
  create-tenant    Provision a tenant and print its API key
  list-tenants     List all tenants
  rotate-key       Issue a fresh API key for a tenant
  set-channel      Configure a tenant's channel credentials (prompted)
  help             Show this help message

Examples:
  frontdesk admin create-tenant --name "Bella Salon"
  frontdesk admin list-tenants
  frontdesk admin rotate-key --id 6b9f...
  frontdesk admin set-channel --id 6b9f... --channel telegram
`)
}

func loadAdminDeps() (*service.Registry, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// No cache: admin commands are one-shot and must see fresh state.
	registry := service.NewRegistry(postgres.NewStore(pool), nil, 0)
	return registry, pool.Close, nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant business name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	registry, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	t, key, err := registry.Create(context.Background(), tenant.CreateRequest{Name: *name})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant created.\n")
	fmt.Fprintf(os.Stderr, "  ID:      %s\n", t.ID)
	fmt.Fprintf(os.Stderr, "  Name:    %s\n", t.Name)
	fmt.Fprintf(os.Stderr, "  API key: %s\n", key)
	fmt.Fprintf(os.Stderr, "Store the API key now; it is not retrievable later.\n")
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	tenants, err := registry.List(context.Background())
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENABLED\tCHANNELS\tCREATED")
	for _, t := range tenants {
		configured := 0
		for ch, cfg := range t.Channels {
			if cfg.Configured(ch) {
				configured++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\n",
			t.ID, t.Name, t.Enabled, configured, t.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runAdminRotateKey(args []string) error {
	fs := flag.NewFlagSet("rotate-key", flag.ContinueOnError)
	id := fs.String("id", "", "tenant id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	registry, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	key, err := registry.RotateAPIKey(context.Background(), *id)
	if err != nil {
		return fmt.Errorf("rotate key: %w", err)
	}

	fmt.Fprintf(os.Stderr, "New API key: %s\n", key)
	fmt.Fprintf(os.Stderr, "The previous key stopped working immediately.\n")
	return nil
}

func runAdminSetChannel(args []string) error {
	fs := flag.NewFlagSet("set-channel", flag.ContinueOnError)
	id := fs.String("id", "", "tenant id (required)")
	chName := fs.String("channel", "", "channel: telegram, whatsapp, facebook, instagram (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *chName == "" {
		return fmt.Errorf("--id and --channel are required")
	}

	ch := tenant.Channel(*chName)
	if !ch.Valid() || ch == tenant.ChannelWebsite {
		return fmt.Errorf("channel %q has no configurable credentials", *chName)
	}

	cfg, err := promptChannelConfig(ch)
	if err != nil {
		return err
	}

	registry, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	req := tenant.UpdateChannelRequest{Channel: ch, Config: cfg}
	if err := registry.UpdateChannel(context.Background(), *id, req); err != nil {
		return fmt.Errorf("set channel: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Channel %s configured for tenant %s\n", ch, *id)
	return nil
}

// promptChannelConfig collects the channel's credentials, hiding secret
// input like a password prompt.
func promptChannelConfig(ch tenant.Channel) (tenant.ChannelConfig, error) {
	var cfg tenant.ChannelConfig
	var err error

	switch ch {
	case tenant.ChannelTelegram:
		if cfg.BotToken, err = promptSecret("Bot token: "); err != nil {
			return cfg, err
		}
		if cfg.WebhookSecret, err = promptSecret("Webhook secret token: "); err != nil {
			return cfg, err
		}
	case tenant.ChannelWhatsApp:
		if cfg.AccessToken, err = promptSecret("Access token: "); err != nil {
			return cfg, err
		}
		if cfg.PhoneNumberID, err = promptLine("Phone number ID: "); err != nil {
			return cfg, err
		}
		if cfg.VerifyToken, err = promptSecret("Verify token: "); err != nil {
			return cfg, err
		}
		if cfg.WebhookSecret, err = promptSecret("App secret (optional): "); err != nil {
			return cfg, err
		}
	case tenant.ChannelFacebook, tenant.ChannelInstagram:
		if cfg.AccessToken, err = promptSecret("Page access token: "); err != nil {
			return cfg, err
		}
		if cfg.PageID, err = promptLine("Page ID: "); err != nil {
			return cfg, err
		}
		if cfg.VerifyToken, err = promptSecret("Verify token: "); err != nil {
			return cfg, err
		}
		if cfg.WebhookSecret, err = promptSecret("App secret (optional): "); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func promptSecret(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return string(b), nil
}

func promptLine(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	var s string
	if _, err := fmt.Fscanln(os.Stdin, &s); err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return s, nil
}
