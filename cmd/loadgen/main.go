// Load generator for exercising Verdict with complaint case data.
//
// Usage:
//   go run cmd/loadgen/main.go -csv ./cases.csv -url http://localhost:8080
//
// This tool:
//   1. Reads complaint cases from a catalog CSV
//   2. Sends each case to Verdict for evaluation
//   3. Summarizes the decision distribution, scores, and latency
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// CaseRequest is the Verdict API request format.
type CaseRequest struct {
	ID                  string  `json:"case_id"`
	OrderValue          float64 `json:"order_value"`
	DeliveryDelayMin    int     `json:"delivery_delay_min"`
	RestaurantErrorRate float64 `json:"restaurant_error_rate"`
	CustomerRefundRate  float64 `json:"customer_refund_rate"`
	ComplaintType       string  `json:"complaint_type"`
	PhotoProvided       bool    `json:"photo_provided"`
	ComplaintText       string  `json:"complaint_text,omitempty"`
}

// DecisionResponse is the Verdict API response format.
type DecisionResponse struct {
	ID           string  `json:"id"`
	Action       string  `json:"action"`
	Confidence   float64 `json:"confidence"`
	Score        float64 `json:"score"`
	SignalSource string  `json:"signal_source"`
}

// Metrics tracks load run results.
type Metrics struct {
	Refunds  int64
	Partials int64
	Rejects  int64
	Reviews  int64

	TotalProcessed int64
	TotalErrors    int64

	// Scores accumulate in centipoints so atomics suffice.
	ScoreCentiSum int64

	ProcessingTimeMs int64
}

func main() {
	csvPath := flag.String("csv", "./cases.csv", "Path to the case catalog CSV")
	baseURL := flag.String("url", "http://localhost:8080", "Verdict base URL")
	limit := flag.Int("limit", 0, "Maximum cases to send (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	complaintType := flag.String("type", "", "Only send cases with this complaint type")
	verbose := flag.Bool("verbose", false, "Print each case result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║            VERDICT LOADGEN - Complaint Case Replay            ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:     %s\n", *csvPath)
	fmt.Printf("Verdict URL:  %s\n", *baseURL)
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Printf("Limit:        %d\n", *limit)
	if *complaintType != "" {
		fmt.Printf("Type Filter:  %s\n", *complaintType)
	}
	fmt.Println()

	// Check Verdict is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Verdict not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Verdict is running:")
		fmt.Println("  go run cmd/verdict/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Verdict is healthy")

	fmt.Printf("\nReading cases from %s...\n", *csvPath)
	cases, err := readCaseCSV(*csvPath, *limit, *complaintType)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	if len(cases) == 0 {
		fmt.Println("ERROR: No cases matched")
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d cases\n", len(cases))

	fmt.Printf("\nRunning with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runLoad(cases, *baseURL, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readCaseCSV(path string, limit int, typeFilter string) ([]CaseRequest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	field := func(record []string, name string) string {
		i, ok := colIndex[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var cases []CaseRequest

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		ct := field(record, "complaint_type")
		if typeFilter != "" && ct != typeFilter {
			continue
		}

		orderValue, _ := strconv.ParseFloat(field(record, "order_value"), 64)
		delay, _ := strconv.Atoi(field(record, "delivery_delay_min"))
		errorRate, _ := strconv.ParseFloat(field(record, "restaurant_error_rate"), 64)
		refundRate, _ := strconv.ParseFloat(field(record, "customer_refund_rate"), 64)
		photo := strings.EqualFold(field(record, "photo_provided"), "true")

		cases = append(cases, CaseRequest{
			ID:                  field(record, "case_id"),
			OrderValue:          orderValue,
			DeliveryDelayMin:    delay,
			RestaurantErrorRate: errorRate,
			CustomerRefundRate:  refundRate,
			ComplaintType:       ct,
			PhotoProvided:       photo,
			ComplaintText:       field(record, "complaint_text"),
		})

		if limit > 0 && len(cases) >= limit {
			break
		}
	}

	return cases, nil
}

func runLoad(cases []CaseRequest, baseURL string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan CaseRequest, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for cs := range work {
				start := time.Now()
				result, err := evaluateCase(client, baseURL, cs)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", cs.ID, err)
					}
					continue
				}

				atomic.AddInt64(&metrics.ScoreCentiSum, int64(result.Score*100))

				switch result.Action {
				case "REFUND":
					atomic.AddInt64(&metrics.Refunds, 1)
				case "PARTIAL":
					atomic.AddInt64(&metrics.Partials, 1)
				case "REJECT":
					atomic.AddInt64(&metrics.Rejects, 1)
				case "MANUAL_REVIEW":
					atomic.AddInt64(&metrics.Reviews, 1)
				}

				if verbose {
					fmt.Printf("✓ %-10s | Type: %-14s | Value: $%8.2f | Delay: %4dm | %-13s (%.1f)\n",
						cs.ID,
						cs.ComplaintType,
						cs.OrderValue,
						cs.DeliveryDelayMin,
						result.Action,
						result.Score,
					)
				}
			}
		}()
	}

	for _, cs := range cases {
		work <- cs
	}
	close(work)

	wg.Wait()

	return metrics
}

func evaluateCase(client *http.Client, baseURL string, cs CaseRequest) (*DecisionResponse, error) {
	body, err := json.Marshal(cs)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result DecisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                        LOADGEN RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	decided := m.TotalProcessed - m.TotalErrors

	fmt.Printf("\n📊 RUN STATISTICS\n")
	fmt.Printf("   Total Sent:     %d\n", m.TotalProcessed)
	fmt.Printf("   Total Decided:  %d\n", decided)
	fmt.Printf("   Errors:         %d\n", m.TotalErrors)

	pct := func(n int64) float64 {
		if decided == 0 {
			return 0
		}
		return 100 * float64(n) / float64(decided)
	}

	fmt.Printf("\n⚖️  DECISION DISTRIBUTION\n")
	fmt.Printf("   REFUND:         %6d (%5.1f%%)\n", m.Refunds, pct(m.Refunds))
	fmt.Printf("   PARTIAL:        %6d (%5.1f%%)\n", m.Partials, pct(m.Partials))
	fmt.Printf("   REJECT:         %6d (%5.1f%%)\n", m.Rejects, pct(m.Rejects))
	fmt.Printf("   MANUAL_REVIEW:  %6d (%5.1f%%)\n", m.Reviews, pct(m.Reviews))

	if decided > 0 {
		avgScore := float64(m.ScoreCentiSum) / 100 / float64(decided)
		fmt.Printf("\n   Average Score:  %.1f\n", avgScore)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		cps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f cases/sec\n", cps)
	}

	// Interpretation
	fmt.Printf("\n💡 INTERPRETATION\n")
	reviewRate := pct(m.Reviews)
	if reviewRate <= 10 {
		fmt.Println("   ✅ Manual review load is healthy")
	} else if reviewRate <= 25 {
		fmt.Println("   ⚠️  Noticeable manual review load - consider tuning thresholds")
	} else {
		fmt.Println("   ❌ Heavy manual review load - the borderline bands are too wide")
	}

	if m.TotalErrors == 0 {
		fmt.Println("   ✅ No request errors")
	} else {
		fmt.Printf("   ⚠️  %d requests failed\n", m.TotalErrors)
	}

	fmt.Println()
}
