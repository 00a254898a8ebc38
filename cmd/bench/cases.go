// README: Runner cases: environment checks, booking flow, concurrent accept and throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
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

	// state carried between flow cases
	bookingID int64
	number    string
	billID    int64
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

type caller struct {
	id   int64
	role string
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

func (r *Runner) customer() caller { return caller{id: r.cfg.CustomerID, role: "ROLE_CUSTOMER"} }
func driver(id int64) caller { return caller{id: id, role: "ROLE_DRIVER"} }

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: caseDBPing},
		{Name: "Env: Redis connect", Run: caseRedisPing},
		{Name: "Env: schema tables exist", Run: caseTables},
		{Name: "API: health", Run: caseHealth},
		{Name: "Booking: create (distance 10 -> amount 1000)", Run: caseCreate},
		{Name: "Booking: negative distance -> 400", Run: caseCreateInvalid},
		{Name: "Booking: get by number", Run: caseGetByNumber},
		{Name: "Accept: concurrent drivers, exactly one wins", Run: caseConcurrentAccept},
		{Name: "Bill: one bill with tax and discount", Run: caseBill},
		{Name: "Bill: pay twice is idempotent", Run: casePayTwice},
		{Name: "Cancel: customer cancel then accept -> 409", Run: caseCancelThenAccept},
		{Name: "Perf: create throughput", Run: caseCreateThroughput},
	}
}

func caseDBPing(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "dsn not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func caseRedisPing(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusSkip, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func caseTables(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "dsn not configured"}
	}
	for _, t := range []string{"bookings", "bills"} {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass}
}

func caseHealth(ctx context.Context, r *Runner) Result {
	start := time.Now()
	code, _, err := r.call(ctx, http.MethodGet, "/health", nil, caller{})
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return expect(code, http.StatusOK, time.Since(start))
}

func caseCreate(ctx context.Context, r *Runner) Result {
	start := time.Now()
	code, body, err := r.call(ctx, http.MethodPost, "/api/bookings", map[string]any{
		"pickup_address":      "Bench Pickup",
		"destination_address": "Bench Destination",
		"distance":            "10",
	}, r.customer())
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != http.StatusCreated {
		return Result{Status: statusFail, Note: fmt.Sprintf("status=%d body=%s", code, body)}
	}
	var b struct {
		ID            int64           `json:"id"`
		BookingNumber string          `json:"booking_number"`
		Amount        decimal.Decimal `json:"amount"`
		Status        string          `json:"status"`
	}
	if err := json.Unmarshal(body, &b); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if !b.Amount.Equal(decimal.NewFromInt(1000)) || b.Status != "PENDING" {
		return Result{Status: statusFail, Note: fmt.Sprintf("amount=%s status=%s", b.Amount, b.Status)}
	}
	r.bookingID, r.number = b.ID, b.BookingNumber
	return Result{Status: statusPass, Latency: time.Since(start), Note: b.BookingNumber}
}

func caseCreateInvalid(ctx context.Context, r *Runner) Result {
	code, _, err := r.call(ctx, http.MethodPost, "/api/bookings", map[string]any{
		"pickup_address":      "a",
		"destination_address": "b",
		"distance":            "-1",
	}, r.customer())
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return expect(code, http.StatusBadRequest, 0)
}

func caseGetByNumber(ctx context.Context, r *Runner) Result {
	if r.number == "" {
		return Result{Status: statusSkip, Note: "no booking created"}
	}
	start := time.Now()
	code, _, err := r.call(ctx, http.MethodGet, "/api/bookings/number/"+r.number, nil, r.customer())
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return expect(code, http.StatusOK, time.Since(start))
}

func caseConcurrentAccept(ctx context.Context, r *Runner) Result {
	if r.bookingID == 0 {
		return Result{Status: statusSkip, Note: "no booking created"}
	}
	path := fmt.Sprintf("/api/bookings/%d/accept?discount=10", r.bookingID)

	var wg sync.WaitGroup
	codes := make(chan int, r.cfg.Concurrency)
	start := make(chan struct{})
	began := time.Now()
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(driverID int64) {
			defer wg.Done()
			<-start
			code, _, err := r.call(ctx, http.MethodPut, path, nil, driver(driverID))
			if err != nil {
				code = -1
			}
			codes <- code
		}(int64(5000 + i))
	}
	close(start)
	wg.Wait()
	close(codes)

	ok, conflict, other := 0, 0, 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		default:
			other++
		}
	}
	note := fmt.Sprintf("ok=%d conflict=%d other=%d", ok, conflict, other)
	if ok != 1 || other != 0 {
		return Result{Status: statusFail, Latency: time.Since(began), Note: note}
	}
	return Result{Status: statusPass, Latency: time.Since(began), Note: note}
}

func caseBill(ctx context.Context, r *Runner) Result {
	if r.bookingID == 0 {
		return Result{Status: statusSkip, Note: "no booking created"}
	}
	code, body, err := r.call(ctx, http.MethodGet, fmt.Sprintf("/api/bills/booking/%d", r.bookingID), nil, r.customer())
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != http.StatusOK {
		return Result{Status: statusFail, Note: fmt.Sprintf("status=%d", code)}
	}
	var b struct {
		ID             int64           `json:"id"`
		TaxAmount      decimal.Decimal `json:"tax_amount"`
		DiscountAmount decimal.Decimal `json:"discount_amount"`
		PaymentStatus  string          `json:"payment_status"`
	}
	if err := json.Unmarshal(body, &b); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if !b.TaxAmount.Equal(decimal.NewFromInt(20)) || !b.DiscountAmount.Equal(decimal.NewFromInt(100)) || b.PaymentStatus != "PENDING" {
		return Result{Status: statusFail, Note: string(body)}
	}
	r.billID = b.ID
	if r.db != nil {
		var n int
		if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM bills WHERE booking_id=$1", r.bookingID).Scan(&n); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if n != 1 {
			return Result{Status: statusFail, Note: "bills for booking: " + strconv.Itoa(n)}
		}
	}
	return Result{Status: statusPass}
}

func casePayTwice(ctx context.Context, r *Runner) Result {
	if r.billID == 0 {
		return Result{Status: statusSkip, Note: "no bill"}
	}
	path := fmt.Sprintf("/api/bills/%d/pay", r.billID)
	for i := 0; i < 2; i++ {
		code, body, err := r.call(ctx, http.MethodPut, path, nil, r.customer())
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if code != http.StatusOK || !bytes.Contains(body, []byte("Payment Completed")) {
			return Result{Status: statusFail, Note: fmt.Sprintf("attempt %d status=%d", i+1, code)}
		}
	}
	return Result{Status: statusPass}
}

func caseCancelThenAccept(ctx context.Context, r *Runner) Result {
	code, body, err := r.call(ctx, http.MethodPost, "/api/bookings", map[string]any{
		"pickup_address":      "Cancel Pickup",
		"destination_address": "Cancel Destination",
		"distance":            "2.5",
	}, r.customer())
	if err != nil || code != http.StatusCreated {
		return Result{Status: statusFail, Note: fmt.Sprintf("create status=%d err=%v", code, err)}
	}
	var b struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(body, &b)

	code, body, err = r.call(ctx, http.MethodPut, fmt.Sprintf("/api/bookings/%d/cancel", b.ID), nil, r.customer())
	if err != nil || code != http.StatusOK || !bytes.Contains(body, []byte("CUSTOMER_CANCELLED")) {
		return Result{Status: statusFail, Note: fmt.Sprintf("cancel status=%d body=%s", code, body)}
	}
	code, _, err = r.call(ctx, http.MethodPut, fmt.Sprintf("/api/bookings/%d/accept", b.ID), nil, driver(6000))
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return expect(code, http.StatusConflict, 0)
}

func caseCreateThroughput(ctx context.Context, r *Runner) Result {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	var ok, failed atomic.Int64
	var wg sync.WaitGroup
	began := time.Now()
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				code, _, err := r.call(ctx, http.MethodPost, "/api/bookings", map[string]any{
					"pickup_address":      "Load Pickup",
					"destination_address": "Load Destination",
					"distance":            "1",
				}, r.customer())
				if ctx.Err() != nil {
					return
				}
				if err != nil || code != http.StatusCreated {
					failed.Add(1)
					continue
				}
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(began)
	note := fmt.Sprintf("created=%d failed=%d rps=%.1f", ok.Load(), failed.Load(), float64(ok.Load())/elapsed.Seconds())
	if failed.Load() > 0 || ok.Load() == 0 {
		return Result{Status: statusFail, Latency: elapsed, Note: note}
	}
	return Result{Status: statusPass, Latency: elapsed, Note: note}
}

func (r *Runner) call(ctx context.Context, method, path string, body any, who caller) (int, []byte, error) {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if who.id != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(who.id, 10))
		req.Header.Set("X-User-Role", who.role)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

func expect(got, want int, latency time.Duration) Result {
	if got != want {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d want=%d", got, want)}
	}
	return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", got)}
}
