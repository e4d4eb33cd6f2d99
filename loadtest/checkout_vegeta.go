package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// seedData 与 cmd/tools seed 的输出一致
type seedData struct {
	Accounts []struct {
		UserID int64  `json:"user_id"`
		Role   string `json:"role"`
		Token  string `json:"token"`
	} `json:"accounts"`
	ProductIDs []int64 `json:"product_ids"`
}

func main() {
	var (
		baseURL  = flag.String("base", "http://localhost:8080", "API base URL")
		seedFile = flag.String("seed", "seed_data.json", "Seed file produced by `tools seed`")
		mode     = flag.String("mode", "checkout", "browse | checkout")
		rate     = flag.Int("rate", 100, "Requests per second")
		duration = flag.String("duration", "30s", "Attack duration (e.g. 10s, 1m)")
		outJSON  = flag.String("out", "vegeta_results.json", "Summary JSON output file")
	)
	flag.Parse()

	attackDuration, err := time.ParseDuration(*duration)
	if err != nil {
		logger.Fatal("invalid duration", "err", err)
	}
	seed, err := loadSeed(*seedFile)
	if err != nil {
		logger.Fatal("load seed failed", "err", err)
	}
	var tokens []string
	for _, a := range seed.Accounts {
		if a.Role == "buyer" {
			tokens = append(tokens, a.Token)
		}
	}
	if len(tokens) == 0 || len(seed.ProductIDs) == 0 {
		logger.Fatal("seed file has no buyers or products; run `tools seed` first")
	}

	var targeter vegeta.Targeter
	switch *mode {
	case "browse":
		targeter = browseTargeter(*baseURL, seed.ProductIDs)
	case "checkout":
		targeter = checkoutTargeter(*baseURL, tokens, seed.ProductIDs)
	default:
		logger.Fatal("unknown mode", "mode", *mode)
	}

	attacker := vegeta.NewAttacker()
	var metrics vegeta.Metrics
	var ordersCreated, emptyCart, locked, total uint64

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, attackDuration, "agri_"+*mode) {
		metrics.Add(res)
		total++
		if res.Method != http.MethodPost || !strings.HasSuffix(res.URL, "/api/orders") {
			continue
		}
		switch res.Code {
		case http.StatusCreated:
			ordersCreated++
		case http.StatusConflict:
			locked++
		case http.StatusBadRequest:
			emptyCart++
		}
	}
	metrics.Close()

	summary := map[string]any{
		"attack": map[string]any{
			"mode":     *mode,
			"rate_rps": *rate,
			"duration": attackDuration.String(),
			"buyers":   len(tokens),
		},
		"vegeta_metrics": map[string]any{
			"requests":           metrics.Requests,
			"rate":               metrics.Rate,
			"throughput":         metrics.Throughput,
			"success_ratio_http": metrics.Success,
			"latency_mean_ms":    metrics.Latencies.Mean.Seconds() * 1000,
			"latency_p95_ms":     metrics.Latencies.P95.Seconds() * 1000,
			"latency_p99_ms":     metrics.Latencies.P99.Seconds() * 1000,
			"status_codes":       metrics.StatusCodes,
			"errors":             metrics.Errors,
		},
		"checkout": map[string]any{
			"created":    ordersCreated,
			"empty_cart": emptyCart,
			"locked":     locked,
		},
		"total":     total,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	data, _ := json.MarshalIndent(summary, "", "  ")
	if err := os.WriteFile(*outJSON, data, 0644); err != nil {
		logger.Warn("write summary failed", "err", err)
	}
	fmt.Println(string(data))
}

// browseTargeter 公开接口：列表/详情/搜索轮换
func browseTargeter(base string, productIDs []int64) vegeta.Targeter {
	var counter uint64
	return func(t *vegeta.Target) error {
		idx := atomic.AddUint64(&counter, 1) - 1
		t.Method = http.MethodGet
		switch idx % 3 {
		case 0:
			t.URL = base + "/api/products"
		case 1:
			t.URL = fmt.Sprintf("%s/api/products/%d", base, productIDs[rand.Intn(len(productIDs))])
		default:
			t.URL = base + "/api/products/search?category=Vegetables"
		}
		return nil
	}
}

// checkoutTargeter 同一买家先加购再结账，轮流使用所有买家 token
func checkoutTargeter(base string, tokens []string, productIDs []int64) vegeta.Targeter {
	var counter uint64
	return func(t *vegeta.Target) error {
		idx := atomic.AddUint64(&counter, 1) - 1
		token := tokens[(idx/2)%uint64(len(tokens))]
		var body map[string]any
		if idx%2 == 0 {
			t.URL = base + "/api/cart"
			body = map[string]any{
				"product_id": productIDs[rand.Intn(len(productIDs))],
				"quantity":   rand.Intn(3) + 1,
			}
		} else {
			t.URL = base + "/api/orders"
			body = map[string]any{
				"delivery_address": "1 Market Road",
				"delivery_city":    "Nairobi",
				"delivery_phone":   "0700000000",
			}
		}
		b, _ := json.Marshal(body)
		t.Method = http.MethodPost
		t.Body = b
		t.Header = http.Header{}
		t.Header.Set("Content-Type", "application/json")
		t.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

func loadSeed(path string) (*seedData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	var s seedData
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}
