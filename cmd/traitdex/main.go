// Command traitdex is the thin client for the documentation host. It
// publishes trait implementor registries to a running daemon, spooling them
// when no daemon is up, and queries the accumulated view.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/traitdex/traitdex/internal/assets"
	"github.com/traitdex/traitdex/internal/config"
	"github.com/traitdex/traitdex/internal/daemon"
	"github.com/traitdex/traitdex/internal/logger"
	"github.com/traitdex/traitdex/internal/spool"
)

const usage = `Usage: traitdex <command> [arguments]

Commands:
  publish <file|dir>   deliver registration assets to the host (spooled if down)
  query <trait>        print the accumulated registry for a trait
  list                 list known traits and modules
  render <trait>       print the implementors HTML section for a trait
  status               show daemon status
  stop                 ask the daemon to shut down
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	logger.Init(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	ctx := context.Background()

	switch os.Args[1] {
	case "publish":
		err = cmdPublish(ctx, cfg, os.Args[2:])
	case "query":
		err = cmdQuery(ctx, cfg, os.Args[2:])
	case "list":
		err = cmdList(ctx, cfg)
	case "render":
		err = cmdRender(ctx, cfg, os.Args[2:])
	case "status":
		err = cmdStatus(ctx, cfg)
	case "stop":
		err = cmdStop(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "traitdex: %v\n", err)
	os.Exit(1)
}

func connect(ctx context.Context, cfg *config.Config) (*daemon.Client, error) {
	return daemon.Connect(ctx, cfg.SocketPath)
}

// cmdPublish reads one asset file or scans a directory, then delivers each
// document. Delivery goes to exactly one place: the daemon when reachable,
// the spool otherwise.
func cmdPublish(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("publish: expected exactly one file or directory")
	}
	target := fs.Arg(0)

	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	paths := []string{target}
	if info.IsDir() {
		paths, err = assets.Scan(target, cfg.Assets)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("publish: no registration assets under %s", target)
		}
	}

	client, connErr := connect(ctx, cfg)
	if connErr == nil {
		defer client.Close()
	}
	sp := spool.New(cfg.SpoolDir)

	for _, path := range paths {
		doc, err := assets.Read(path, cfg.Assets)
		if err != nil {
			return fmt.Errorf("publish %s: %w", path, err)
		}

		if connErr != nil {
			if err := sp.Put(doc); err != nil {
				return fmt.Errorf("spool %s: %w", path, err)
			}
			fmt.Printf("spooled %s (%s)\n", path, doc.Trait)
			continue
		}

		res, err := client.Publish(ctx, doc.Trait, doc.Registry)
		if err != nil {
			return fmt.Errorf("publish %s: %w", path, err)
		}
		fmt.Printf("published %s (%s, %d modules)\n", path, doc.Trait, res.Modules)
	}

	return nil
}

func cmdQuery(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("query: expected exactly one trait path")
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Query(ctx, args[0])
	if err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("query: no implementors published for %s", args[0])
	}

	out, err := json.MarshalIndent(res.Registry, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdList(ctx context.Context, cfg *config.Config) error {
	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.List(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Traits:")
	for _, trait := range res.Traits {
		fmt.Printf("  %s\n", trait)
	}
	fmt.Println("Modules:")
	for _, module := range res.Modules {
		fmt.Printf("  %s\n", module)
	}
	return nil
}

func cmdRender(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	local := fs.String("local", "", "module whose implementors are already on the page")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("render: expected exactly one trait path")
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Render(ctx, fs.Arg(0), *local)
	if err != nil {
		return err
	}
	fmt.Println(res.HTML)
	return nil
}

func cmdStatus(ctx context.Context, cfg *config.Config) error {
	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("traitdex-daemon %s\n", res.Version)
	fmt.Printf("  uptime:       %ds\n", res.UptimeSeconds)
	fmt.Printf("  traits:       %d\n", res.Traits)
	fmt.Printf("  modules:      %d\n", res.Modules)
	fmt.Printf("  implementors: %d\n", res.Implementors)
	fmt.Printf("  publishes:    %d\n", res.Publishes)
	return nil
}

func cmdStop(ctx context.Context, cfg *config.Config) error {
	client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Stop(ctx); err != nil {
		return err
	}
	fmt.Println("daemon stopping")
	return nil
}
