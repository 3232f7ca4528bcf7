package assets

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"assethost.local/internal/platform/metrics"
	"golang.org/x/sync/singleflight"
)

// BucketOutputKey is the stack output holding the asset bucket name.
const BucketOutputKey = "S3Bucket"

const defaultProviderDomain = "aws.amazon.com"

// StackDescriber reads the outputs of a deployed stack.
type StackDescriber interface {
	DescribeStackOutputs(ctx context.Context, stackName string) (map[string]string, error)
}

// SharedCache stores a stack's bucket name across processes. Only the
// bucket is shared; each process composes its own base url from it.
// Implementations report a miss as ("", false, nil).
type SharedCache interface {
	Get(ctx context.Context, stackName string) (bucket string, ok bool, err error)
	Set(ctx context.Context, stackName, bucket string) error
	Delete(ctx context.Context, stackName string) error
}

type ResolverOptions struct {
	StackName       string
	Region          string
	BaseURLOverride string // scheme+host, replaces https://<region>-s3.<ProviderDomain>
	ProviderDomain  string
	Shared          SharedCache // optional
}

// Resolver computes the asset bucket's public url once per process and
// hands the same string to every caller afterwards. Build one at startup
// and share it.
type Resolver struct {
	describer StackDescriber
	opts      ResolverOptions

	group singleflight.Group

	mu      sync.RWMutex
	baseURL string
	// gen is bumped by Reset; lookups started under an older gen are not stored.
	gen uint64
}

func NewResolver(describer StackDescriber, opts ResolverOptions) *Resolver {
	if opts.ProviderDomain == "" {
		opts.ProviderDomain = defaultProviderDomain
	}
	return &Resolver{
		describer: describer,
		opts:      opts,
	}
}

// Resolve returns the base url, looking it up on first use. Concurrent
// first callers share a single lookup. Failures are returned as
// *ResolutionError and are not cached, so the next render tries again.
//
// The lookup is detached from ctx cancellation: it is shared by every
// waiting request and must not fail because one of them went away.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if v, ok := r.Cached(); ok {
		metrics.BaseURLCache.WithLabelValues("process", "hit").Inc()
		return v, nil
	}

	v, err, _ := r.group.Do(r.opts.StackName, func() (any, error) {
		if v, ok := r.Cached(); ok {
			return v, nil
		}
		metrics.BaseURLCache.WithLabelValues("process", "miss").Inc()

		r.mu.RLock()
		gen := r.gen
		r.mu.RUnlock()

		baseURL, err := r.lookup(context.WithoutCancel(ctx), gen)
		if err != nil {
			return "", err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen != gen {
			return baseURL, nil
		}
		if r.baseURL == "" {
			r.baseURL = baseURL
		}
		return r.baseURL, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Cached returns the memoized base url, if any.
func (r *Resolver) Cached() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseURL, r.baseURL != ""
}

// Reset forgets the memoized base url and the shared bucket entry. The
// shared entry goes first so no render can copy it back in between. A
// lookup still in flight finishes for its own callers but is not stored,
// and callers arriving after Reset start a fresh lookup.
func (r *Resolver) Reset(ctx context.Context) error {
	var err error
	if r.opts.Shared != nil {
		if err = r.opts.Shared.Delete(ctx, r.opts.StackName); err != nil {
			slog.Warn("shared asset cache delete failed", "stack", r.opts.StackName, "err", err)
		}
	}

	r.mu.Lock()
	r.gen++
	r.baseURL = ""
	r.mu.Unlock()
	r.group.Forget(r.opts.StackName)

	slog.Info("asset base url reset", "stack", r.opts.StackName)
	return err
}

// StackName is the stack the resolver reads.
func (r *Resolver) StackName() string {
	return r.opts.StackName
}

func (r *Resolver) lookup(ctx context.Context, gen uint64) (string, error) {
	if r.opts.Shared != nil {
		bucket, ok, err := r.opts.Shared.Get(ctx, r.opts.StackName)
		switch {
		case err != nil:
			metrics.BaseURLCache.WithLabelValues("shared", "error").Inc()
			slog.Warn("shared asset cache get failed", "stack", r.opts.StackName, "err", err)
		case ok:
			metrics.BaseURLCache.WithLabelValues("shared", "hit").Inc()
			return r.compose(bucket), nil
		default:
			metrics.BaseURLCache.WithLabelValues("shared", "miss").Inc()
		}
	}

	outputs, err := r.describer.DescribeStackOutputs(ctx, r.opts.StackName)
	if err != nil {
		slog.Error("describe stack failed", "stack", r.opts.StackName, "err", err)
		return "", &ResolutionError{Stack: r.opts.StackName, Op: "describe", Err: err}
	}
	bucket := outputs[BucketOutputKey]
	if bucket == "" {
		slog.Error("stack has no bucket output", "stack", r.opts.StackName, "output", BucketOutputKey)
		return "", &ResolutionError{Stack: r.opts.StackName, Op: "output " + BucketOutputKey, Err: ErrMissingOutput}
	}

	baseURL := r.compose(bucket)
	slog.Info("asset base url resolved", "stack", r.opts.StackName, "base_url", baseURL)

	r.mu.RLock()
	stale := r.gen != gen
	r.mu.RUnlock()
	if r.opts.Shared != nil && !stale {
		if err := r.opts.Shared.Set(ctx, r.opts.StackName, bucket); err != nil {
			slog.Warn("shared asset cache set failed", "stack", r.opts.StackName, "err", err)
		}
	}
	return baseURL, nil
}

func (r *Resolver) compose(bucket string) string {
	return r.host() + "/" + bucket + "/public"
}

func (r *Resolver) host() string {
	if r.opts.BaseURLOverride != "" {
		return strings.TrimSuffix(r.opts.BaseURLOverride, "/")
	}
	return "https://" + r.opts.Region + "-s3." + r.opts.ProviderDomain
}
