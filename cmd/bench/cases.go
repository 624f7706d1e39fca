// README: Bench cases: ride flow over HTTP, event sinks in Postgres and Redis, and a create-ride load run.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func rideBody() map[string]any {
	return map[string]any{
		"destination":        "Terminal Rodoviário, Plataforma A",
		"passenger_name":     "Bench Passenger",
		"passenger_cpf":      "529.982.247-25",
		"passenger_whatsapp": "(93) 98118-3360",
		"category":           "CARRO",
	}
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{
			Name: "API: health",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				code, _, err := r.do(ctx, http.MethodGet, "/health", nil)
				return expectCode(code, err, http.StatusOK, time.Since(start))
			},
		},
		{
			Name: "API: create ride is accepted at once",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				code, body, err := r.do(ctx, http.MethodPost, "/api/rides", rideBody())
				res := expectCode(code, err, http.StatusCreated, time.Since(start))
				if res.Status != statusPass {
					return res
				}
				if body["status"] != "ACCEPTED" {
					return Result{Status: statusFail, Note: fmt.Sprintf("status=%v", body["status"])}
				}
				return res
			},
		},
		{
			Name: "API: invalid CPF is rejected",
			Run: func(ctx context.Context, r *Runner) Result {
				req := rideBody()
				req["passenger_cpf"] = "111.111.111-11"
				code, _, err := r.do(ctx, http.MethodPost, "/api/rides", req)
				return expectCode(code, err, http.StatusBadRequest, 0)
			},
		},
		{
			Name: "Chat: driver replies after the delay",
			Run: func(ctx context.Context, r *Runner) Result {
				id, err := r.createRide(ctx)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				start := time.Now()
				code, _, err := r.do(ctx, http.MethodPost, "/api/rides/"+id+"/messages", map[string]string{"text": "Estou na portaria"})
				if res := expectCode(code, err, http.StatusCreated, 0); res.Status != statusPass {
					return res
				}
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					_, body, err := r.do(ctx, http.MethodGet, "/api/rides/"+id+"/messages", nil)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if msgs, _ := body["messages"].([]any); len(msgs) >= 2 {
						return Result{Status: statusPass, Latency: time.Since(start)}
					}
					time.Sleep(250 * time.Millisecond)
				}
				return Result{Status: statusFail, Note: "no driver reply within 5s"}
			},
		},
		{
			Name: "Cancel: ride disappears and cancel is idempotent",
			Run: func(ctx context.Context, r *Runner) Result {
				id, err := r.createRide(ctx)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				_, body, err := r.do(ctx, http.MethodDelete, "/api/rides/"+id, nil)
				if err != nil || body["cancelled"] != true {
					return Result{Status: statusFail, Note: fmt.Sprintf("first cancel: %v %v", body, err)}
				}
				_, body, err = r.do(ctx, http.MethodDelete, "/api/rides/"+id, nil)
				if err != nil || body["cancelled"] != false {
					return Result{Status: statusFail, Note: fmt.Sprintf("second cancel: %v %v", body, err)}
				}
				code, _, err := r.do(ctx, http.MethodGet, "/api/rides/"+id, nil)
				return expectCode(code, err, http.StatusNotFound, 0)
			},
		},
		{
			Name: "Sink: ride events reach Postgres",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "no dsn"}
				}
				id, err := r.createRide(ctx)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					var n int
					err := r.db.QueryRow(ctx,
						`SELECT count(*) FROM ride_events WHERE ride_id = $1 AND event_type = 'ride.created'`, id).Scan(&n)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if n == 1 {
						return Result{Status: statusPass}
					}
					time.Sleep(200 * time.Millisecond)
				}
				return Result{Status: statusFail, Note: "ride.created not recorded"}
			},
		},
		{
			Name: "Sink: ride events reach Redis",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "no redis"}
				}
				sub := r.redis.Subscribe(ctx, r.cfg.RedisChannel)
				defer sub.Close()
				if _, err := sub.Receive(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				id, err := r.createRide(ctx)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				timeout := time.After(5 * time.Second)
				for {
					select {
					case msg := <-sub.Channel():
						var e struct {
							RideID string `json:"ride_id"`
						}
						if json.Unmarshal([]byte(msg.Payload), &e) == nil && e.RideID == id {
							return Result{Status: statusPass}
						}
					case <-timeout:
						return Result{Status: statusFail, Note: "no event for ride " + id}
					}
				}
			},
		},
		{
			Name: "Load: concurrent ride creation",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.loadCreate(ctx)
			},
		},
	}
}

func (r *Runner) loadCreate(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	var (
		mu        sync.Mutex
		latencies []time.Duration
		failures  atomic.Int64
		wg        sync.WaitGroup
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				start := time.Now()
				code, _, err := r.do(ctx, http.MethodPost, "/api/rides", rideBody())
				if ctx.Err() != nil {
					return
				}
				if err != nil || code != http.StatusCreated {
					failures.Add(1)
					continue
				}
				mu.Lock()
				latencies = append(latencies, time.Since(start))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(latencies) == 0 {
		return Result{Status: statusFail, Note: "no successful requests"}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50 := latencies[len(latencies)/2]
	p95 := latencies[len(latencies)*95/100]
	rps := float64(len(latencies)) / r.cfg.Duration.Seconds()
	note := fmt.Sprintf("ok=%d fail=%d rps=%.1f p50=%s p95=%s", len(latencies), failures.Load(), rps, p50, p95)
	if failures.Load() > 0 {
		return Result{Status: statusFail, Note: note}
	}
	return Result{Status: statusPass, Latency: p95, Note: note}
}

func (r *Runner) createRide(ctx context.Context) (string, error) {
	code, body, err := r.do(ctx, http.MethodPost, "/api/rides", rideBody())
	if err != nil {
		return "", err
	}
	if code != http.StatusCreated {
		return "", fmt.Errorf("create ride: status %d", code)
	}
	id, _ := body["ride_id"].(string)
	return id, nil
}

func (r *Runner) do(ctx context.Context, method, path string, body any) (int, map[string]any, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, nil
}

func expectCode(code int, err error, want int, latency time.Duration) Result {
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != want {
		return Result{Status: statusFail, Note: fmt.Sprintf("status %d, want %d", code, want)}
	}
	return Result{Status: statusPass, Latency: latency}
}
