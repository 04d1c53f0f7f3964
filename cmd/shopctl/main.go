// Command shopctl is a storefront client that keeps its session between runs.
//
//	shopctl login <email> <password>
//	shopctl register <name> <email> <password>
//	shopctl whoami | status | sync | logout
//	shopctl open <path>       request a page with the session cookies
//	shopctl preview <path>    evaluate the route guard locally
//	shopctl apply <store name>
//	shopctl set-status <profile id> <status>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/client"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/config"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage: shopctl [-base url] <login|register|logout|whoami|status|sync|open|preview|apply|set-status> [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	fs := flag.NewFlagSet("shopctl", flag.ContinueOnError)
	fs.SetOutput(out)
	base := fs.String("base", cfg.Client.BaseURL, "site base url")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	st, closeStorage, err := newStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	c, err := client.New(*base, st,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithBreaker(client.BreakerSettings{
			MaxFailures: cfg.Breaker.MaxFailures,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
		}),
	)
	if err != nil {
		return err
	}
	c.Start(ctx)
	defer c.Close()

	return execute(ctx, c, fs.Args(), out)
}

// newStorage picks where snapshots survive between runs.
func newStorage(cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.Client.Storage {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return storage.NewRedis(rdb, cfg.Redis.Prefix, 0), func() { _ = rdb.Close() }, nil
	case "file", "":
		st, err := storage.NewFile(cfg.Client.StorageDir)
		return st, func() {}, err
	case "memory":
		return storage.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Client.Storage)
	}
}

func execute(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	need := func(n int) error {
		if len(rest) < n {
			return errUsage
		}
		return nil
	}

	switch cmd {
	case "login":
		if err := need(2); err != nil {
			return err
		}
		if err := c.Login(ctx, rest[0], rest[1]); err != nil {
			return err
		}
		c.Wait()
		return printStatus(c, out)

	case "register":
		if err := need(3); err != nil {
			return err
		}
		if err := c.Register(ctx, rest[0], rest[1], rest[2]); err != nil {
			return err
		}
		c.Wait()
		return printStatus(c, out)

	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil

	case "whoami":
		snap := c.Session()
		if !snap.IsAuthenticated {
			fmt.Fprintln(out, "anonymous")
			return nil
		}
		fmt.Fprintf(out, "%s <%s> role=%s id=%s\n", snap.Identity.DisplayName, snap.Identity.Email, snap.Identity.Role, snap.Identity.ID)
		return nil

	case "status":
		c.Wait()
		if err := printStatus(c, out); err != nil {
			return err
		}
		st := c.SyncStats()
		fmt.Fprintf(out, "sync: started=%d applied=%d not_found=%d superseded=%d failed=%d last=%s\n",
			st.Started, st.Applied, st.NotFound, st.Superseded, st.Failed, st.LastFetch)
		return nil

	case "sync":
		if err := c.Refresh(ctx); err != nil {
			return err
		}
		return printStatus(c, out)

	case "open":
		if err := need(1); err != nil {
			return err
		}
		page, err := c.Open(ctx, rest[0])
		if err != nil {
			return err
		}
		if page.Redirected() {
			fmt.Fprintf(out, "%d -> %s\n", page.Status, page.Location)
			return nil
		}
		fmt.Fprintf(out, "%d\n", page.Status)
		return nil

	case "preview":
		if err := need(1); err != nil {
			return err
		}
		if d := c.Preview(rest[0]); !d.Allowed() {
			fmt.Fprintf(out, "redirect -> %s\n", d.Redirect)
			return nil
		}
		fmt.Fprintln(out, "allow")
		return nil

	case "apply":
		if err := need(1); err != nil {
			return err
		}
		p, err := c.ApplyAsSeller(ctx, seller.ApplyInput{StoreName: strings.Join(rest, " ")})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "applied: %s (%s) status=%s\n", p.StoreName, p.ID, p.Status)
		return printStatus(c, out)

	case "set-status":
		if err := need(2); err != nil {
			return err
		}
		p, err := c.SetSellerStatus(ctx, rest[0], seller.Status(rest[1]))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s status=%s\n", p.ID, p.Status)
		return nil
	}

	logger.L().Debug("unknown command", zap.String("cmd", cmd))
	return errUsage
}

func printStatus(c *client.Client, out io.Writer) error {
	snap := c.Session()
	if !snap.IsAuthenticated {
		fmt.Fprintln(out, "session: anonymous")
		return nil
	}
	fmt.Fprintf(out, "session: %s role=%s\n", snap.Identity.Email, snap.Identity.Role)

	st := c.Seller()
	if !st.HasSeller {
		fmt.Fprintln(out, "seller: none")
		return nil
	}
	fmt.Fprintf(out, "seller: %s status=%s approved=%t\n", st.Profile.StoreName, st.Status, st.IsApproved)
	return nil
}
