// rescached is a demo caching forward proxy: GET requests are resolved
// through the interceptor keyed on method and URI, so identical requests
// within the TTL window are served from the cache and concurrent identical
// requests hit the upstream once.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/clearlake/rescache/cache"
	"github.com/clearlake/rescache/intercept"
	"github.com/clearlake/rescache/keys"
	"github.com/clearlake/rescache/logger"
)

type upstreamResponse struct {
	Status int         `msgpack:"status"`
	Header http.Header `msgpack:"header"`
	Body   []byte      `msgpack:"body"`
}

func buildStore(ctx context.Context, log logger.Logger, redisAddr, sqlitePath string, maxEntries int) (cache.Store, error) {
	memory := cache.NewMemory(ctx, cache.WithMaxEntries(maxEntries))
	switch {
	case redisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis not reachable at %s: %w", redisAddr, err)
		}
		log.Info("using tiered store: memory + redis (%s)", redisAddr)
		return cache.NewTiered(memory, cache.NewRedis(client, cache.WithPrefix("rescached"))), nil
	case sqlitePath != "":
		sq, err := cache.NewSQLite(ctx, sqlitePath)
		if err != nil {
			return nil, err
		}
		log.Info("using tiered store: memory + sqlite (%s)", sqlitePath)
		return cache.NewTiered(memory, sq), nil
	default:
		log.Info("using memory store (max %d entries)", maxEntries)
		return memory, nil
	}
}

func run(cmd *cobra.Command, _ []string) error {
	listen, _ := cmd.Flags().GetString("listen")
	upstream, _ := cmd.Flags().GetString("upstream")
	ttlFlag, _ := cmd.Flags().GetString("ttl")
	maxEntries, _ := cmd.Flags().GetInt("max-entries")
	redisAddr, _ := cmd.Flags().GetString("redis")
	sqlitePath, _ := cmd.Flags().GetString("sqlite")

	log := logger.NewConsoleLogger()
	ctx := cmd.Context()

	ttl := intercept.TTLFromEnv("RESCACHED_TTL", time.Minute)
	if ttlFlag != "" {
		parsed, err := str2duration.ParseDuration(ttlFlag)
		if err != nil {
			return fmt.Errorf("invalid --ttl %q: %w", ttlFlag, err)
		}
		ttl = parsed
	}

	store, err := buildStore(ctx, log, redisAddr, sqlitePath, maxEntries)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	client := &http.Client{Timeout: 30 * time.Second}

	icp, err := intercept.New(store,
		func(r *http.Request) (string, error) {
			return keys.Join(r.Method, r.URL.RequestURI()), nil
		},
		func(ctx context.Context, r *http.Request) (upstreamResponse, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, upstream+r.URL.RequestURI(), nil)
			if err != nil {
				return upstreamResponse{}, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return upstreamResponse{}, err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return upstreamResponse{}, err
			}
			return upstreamResponse{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
		},
		intercept.WithTTL(ttl),
		intercept.WithLogger(log),
	)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/statsz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(icp.Stats())
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET is cacheable", http.StatusMethodNotAllowed)
			return
		}
		resp, err := icp.Resolve(r.Context(), r)
		if err != nil {
			log.Error("resolve failed for %s: %v", r.URL.RequestURI(), err)
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		for k, vals := range resp.Header {
			for _, v := range vals {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(resp.Status)
		w.Write(resp.Body)
	})

	log.Info("rescached listening on %s, upstream %s, ttl %s", listen, upstream, ttl)
	server := &http.Server{Addr: listen, Handler: mux}
	return server.ListenAndServe()
}

func main() {
	root := &cobra.Command{
		Use:   "rescached",
		Short: "Caching forward proxy demonstrating the rescache interceptor",
		RunE:  run,
	}
	root.Flags().String("listen", ":8080", "address to listen on")
	root.Flags().String("upstream", "", "upstream base URL (required)")
	root.Flags().String("ttl", "", "cache TTL, e.g. 30s or 5m (default from RESCACHED_TTL or 1m)")
	root.Flags().Int("max-entries", 10000, "memory store capacity")
	root.Flags().String("redis", "", "redis address for a second cache tier")
	root.Flags().String("sqlite", "", "sqlite path for a second cache tier")
	root.MarkFlagRequired("upstream")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
