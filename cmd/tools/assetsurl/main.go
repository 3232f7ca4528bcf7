// Command assetsurl resolves the asset bucket url of a stack and shows how
// references are rewritten for a given request host.
//
//	go run ./cmd/tools/assetsurl resolve --stack demo-dev --region us-west-2
//	go run ./cmd/tools/assetsurl rewrite --host abc.execute-api.us-west-2.amazonaws.com --type script application.js /packs/app.js
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"assethost.local/internal/app/assets"
	"assethost.local/internal/app/assets/stack"
	"assethost.local/internal/platform/config"
	flag "github.com/spf13/pflag"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, stack.New); err != nil {
		fmt.Fprintln(os.Stderr, "assetsurl:", err)
		os.Exit(1)
	}
}

type describerFactory func(ctx context.Context, region string) (*stack.CloudFormation, error)

type commonFlags struct {
	stack    string
	region   string
	baseURL  string
	provider string
	timeout  time.Duration
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags, cfg config.Config) {
	fs.StringVar(&f.stack, "stack", cfg.ParentStackName(), "parent stack name")
	fs.StringVar(&f.region, "region", cfg.Region, "AWS region")
	fs.StringVar(&f.baseURL, "base-url", cfg.AssetBaseURL, "scheme+host override for the bucket url")
	fs.StringVar(&f.provider, "provider-domain", cfg.AssetProviderDomain, "domain used in https://<region>-s3.<domain>")
	fs.DurationVarP(&f.timeout, "timeout", "t", 10*time.Second, "lookup timeout")
}

func run(ctx context.Context, args []string, out io.Writer, newDescriber describerFactory) error {
	if len(args) == 0 {
		return errors.New("usage: assetsurl <resolve|rewrite> [flags]")
	}
	cfg := config.Load()

	switch args[0] {
	case "resolve":
		fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
		var f commonFlags
		addCommonFlags(fs, &f, cfg)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		resolver, err := newResolver(ctx, f, newDescriber)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		baseURL, err := resolver.Resolve(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, baseURL)
		return nil

	case "rewrite":
		fs := flag.NewFlagSet("rewrite", flag.ContinueOnError)
		var f commonFlags
		addCommonFlags(fs, &f, cfg)
		host := fs.String("host", "localhost", "request host")
		kind := fs.String("type", "script", "asset type: script or stylesheet")
		gateway := fs.String("gateway-domain", cfg.GatewayDomain, "host marker for gateway requests")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		category, err := parseCategory(*kind)
		if err != nil {
			return err
		}
		resolver, err := newResolver(ctx, f, newDescriber)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		urls, err := assets.NewRewriter(resolver, *gateway).RewriteAll(ctx, fs.Args(), category, *host)
		if err != nil {
			return err
		}
		for _, u := range urls {
			fmt.Fprintln(out, u)
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func newResolver(ctx context.Context, f commonFlags, newDescriber describerFactory) (*assets.Resolver, error) {
	describer, err := newDescriber(ctx, f.region)
	if err != nil {
		return nil, err
	}
	return assets.NewResolver(describer, assets.ResolverOptions{
		StackName:       f.stack,
		Region:          f.region,
		BaseURLOverride: f.baseURL,
		ProviderDomain:  f.provider,
	}), nil
}

func parseCategory(s string) (assets.Category, error) {
	switch s {
	case "script", "js", "javascripts":
		return assets.Script, nil
	case "stylesheet", "css", "stylesheets":
		return assets.Stylesheet, nil
	}
	return 0, fmt.Errorf("unknown asset type %q", s)
}
