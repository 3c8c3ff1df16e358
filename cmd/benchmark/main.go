package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
)

// Metrics
var (
	totalRequests uint64
	approved200   uint64
	declined422   uint64
	rejected400   uint64
	lookup200     uint64
	failOther     uint64
)

// approvedTxns collects transaction ids for the mixed workload's lookups.
var (
	txnMu        sync.Mutex
	approvedTxns []string
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "submit", "Workload type: submit | mixed")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)
	log.Printf("Note: every submission sits through the simulated gateway delay (~1.5s)")

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 10 * time.Second}

	for time.Since(start) < duration {
		// Mixed workload: half the requests read back an approved payment.
		if workload == "mixed" && rand.Float32() < 0.5 {
			if txn := pickTxn(); txn != "" {
				lookupPayment(client, txn)
				continue
			}
		}
		submitPayment(client)
	}
}

func submitPayment(client *http.Client) {
	payload := map[string]interface{}{
		"cardNumber": "4111 1111 1111 1111",
		"cvc":        fmt.Sprintf("%03d", rand.Intn(1000)),
		"expiryDate": fmt.Sprintf("%02d/%02d", rand.Intn(12)+1, 28+rand.Intn(4)),
		"amount":     fmt.Sprintf("%d.%02d", rand.Intn(490)+10, rand.Intn(100)),
		"firstName":  "Bench",
		"lastName":   fmt.Sprintf("Worker%d", rand.Intn(1000)),
		"email":      fmt.Sprintf("bench%d@example.com", rand.Intn(100000)),
		"city":       "Denver",
		"state":      "CO",
		"postalCode": "80202",
	}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", targetURL+"/api/payment", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddUint64(&failOther, 1)
		return
	}
	defer resp.Body.Close()

	atomic.AddUint64(&totalRequests, 1)
	switch resp.StatusCode {
	case 200:
		atomic.AddUint64(&approved200, 1)
		var out struct {
			TransactionID string `json:"transactionId"`
		}
		if json.NewDecoder(resp.Body).Decode(&out) == nil && out.TransactionID != "" {
			txnMu.Lock()
			approvedTxns = append(approvedTxns, out.TransactionID)
			txnMu.Unlock()
		}
	case 422:
		atomic.AddUint64(&declined422, 1)
	case 400:
		atomic.AddUint64(&rejected400, 1)
	default:
		atomic.AddUint64(&failOther, 1)
	}
}

func lookupPayment(client *http.Client, txn string) {
	resp, err := client.Get(targetURL + "/api/payment/" + txn)
	if err != nil {
		atomic.AddUint64(&failOther, 1)
		return
	}
	defer resp.Body.Close()

	atomic.AddUint64(&totalRequests, 1)
	if resp.StatusCode == 200 {
		atomic.AddUint64(&lookup200, 1)
	} else {
		atomic.AddUint64(&failOther, 1)
	}
}

func pickTxn() string {
	txnMu.Lock()
	defer txnMu.Unlock()
	if len(approvedTxns) == 0 {
		return ""
	}
	return approvedTxns[rand.Intn(len(approvedTxns))]
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	ok := atomic.LoadUint64(&approved200)
	declined := atomic.LoadUint64(&declined422)
	rejected := atomic.LoadUint64(&rejected400)
	lookups := atomic.LoadUint64(&lookup200)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	submits := ok + declined
	declineRate := 0.0
	if submits > 0 {
		declineRate = float64(declined) / float64(submits) * 100
	}

	results := map[string]interface{}{
		"workload":         workload,
		"duration_sec":     d.Seconds(),
		"total_requests":   total,
		"throughput_tps":   tps,
		"approved":         ok,
		"declined":         declined,
		"decline_rate_pct": declineRate,
		"rejected_400":     rejected,
		"lookups_ok":       lookups,
		"errors":           fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, _ := os.Create(filename)
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
