// Package casefile loads and serves the complaint case catalog.
//
// The catalog is a CSV file on disk. A missing file is seeded with a
// synthetic dataset so the service always starts with data. Readers get
// an immutable snapshot; a file watcher swaps the snapshot in place when
// the file changes.
package casefile

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/adelsaramii/verdict/internal/domain"
)

// snapshot holds the current case set behind a read-write lock. Swap
// replaces slice and index together so readers never observe a
// half-updated view.
type snapshot struct {
	mu    sync.RWMutex
	cases []domain.Case
	index map[string]int
}

func (s *snapshot) swap(cases []domain.Case, index map[string]int) {
	s.mu.Lock()
	s.cases = cases
	s.index = index
	s.mu.Unlock()
}

func (s *snapshot) load() ([]domain.Case, map[string]int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cases, s.index
}

// header is the canonical column order for generated files.
var header = []string{
	"case_id",
	"order_value",
	"delivery_delay_min",
	"restaurant_error_rate",
	"customer_refund_rate",
	"complaint_type",
	"photo_provided",
	"is_demo",
}

// Catalog is an in-memory snapshot of the case file.
type Catalog struct {
	path   string
	logger *slog.Logger

	snap snapshot
}

// Load opens the case file at path, generating a sample dataset first if
// the file does not exist.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("case file not found, generating sample dataset",
			"path", path,
			"cases", defaultSampleSize,
		)
		if err := Generate(path, defaultSampleSize); err != nil {
			return nil, fmt.Errorf("failed to generate sample dataset: %w", err)
		}
	}

	c := &Catalog{
		path:   path,
		logger: logger,
	}

	if err := c.Reload(); err != nil {
		return nil, err
	}

	return c, nil
}

// Reload re-reads the case file and swaps the snapshot. On parse failure
// the previous snapshot stays in place.
func (c *Catalog) Reload() error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("failed to open case file: %w", err)
	}
	defer f.Close()

	cases, err := parseCases(f, c.logger)
	if err != nil {
		return fmt.Errorf("failed to parse case file: %w", err)
	}

	index := make(map[string]int, len(cases))
	for i, cs := range cases {
		index[cs.ID] = i
	}

	c.snap.swap(cases, index)

	c.logger.Info("case catalog loaded",
		"path", c.path,
		"cases", len(cases),
	)
	return nil
}

// Get returns the case with the given id.
func (c *Catalog) Get(caseID string) (domain.Case, error) {
	cases, index := c.snap.load()
	i, ok := index[caseID]
	if !ok {
		return domain.Case{}, domain.ErrNotFound
	}
	return cases[i], nil
}

// List returns all cases, optionally filtered to demo rows only.
// The returned slice is a copy; callers may not mutate the snapshot.
func (c *Catalog) List(demoOnly bool) []domain.Case {
	cases, _ := c.snap.load()

	out := make([]domain.Case, 0, len(cases))
	for _, cs := range cases {
		if demoOnly && !cs.IsDemo {
			continue
		}
		out = append(out, cs)
	}
	return out
}

// Len returns the number of cases in the current snapshot.
func (c *Catalog) Len() int {
	cases, _ := c.snap.load()
	return len(cases)
}

// parseCases reads CSV rows into cases. Rows with malformed numerics are
// skipped with a warning rather than failing the load.
func parseCases(r io.Reader, logger *slog.Logger) ([]domain.Case, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int, len(head))
	for i, name := range head {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{"case_id", "order_value", "delivery_delay_min", "restaurant_error_rate", "customer_refund_rate", "complaint_type", "photo_provided"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var cases []domain.Case
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping malformed case row", "line", line, "error", err)
			continue
		}

		cs, err := parseCase(record, col)
		if err != nil {
			logger.Warn("skipping malformed case row", "line", line, "error", err)
			continue
		}

		cases = append(cases, cs)
	}

	return cases, nil
}

func parseCase(record []string, col map[string]int) (domain.Case, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	orderValue, err := strconv.ParseFloat(field("order_value"), 64)
	if err != nil {
		return domain.Case{}, fmt.Errorf("order_value: %w", err)
	}
	delay, err := strconv.Atoi(field("delivery_delay_min"))
	if err != nil {
		return domain.Case{}, fmt.Errorf("delivery_delay_min: %w", err)
	}
	errorRate, err := strconv.ParseFloat(field("restaurant_error_rate"), 64)
	if err != nil {
		return domain.Case{}, fmt.Errorf("restaurant_error_rate: %w", err)
	}
	refundRate, err := strconv.ParseFloat(field("customer_refund_rate"), 64)
	if err != nil {
		return domain.Case{}, fmt.Errorf("customer_refund_rate: %w", err)
	}

	return domain.Case{
		ID:                  field("case_id"),
		OrderValue:          orderValue,
		DeliveryDelayMin:    delay,
		RestaurantErrorRate: errorRate,
		CustomerRefundRate:  refundRate,
		ComplaintType:       field("complaint_type"),
		PhotoProvided:       parseBool(field("photo_provided")),
		IsDemo:              parseBool(field("is_demo")),
		ComplaintText:       field("complaint_text"),
	}, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

const defaultSampleSize = 50

// Generate writes a synthetic case dataset to path.
func Generate(path string, numCases int) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < numCases; i++ {
		if err := w.Write(sampleRow(i + 1)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// sampleRow produces one synthetic case. Delays are drawn from three
// buckets so the dataset covers on-time, moderately late, and very late
// deliveries.
func sampleRow(n int) []string {
	var delay int
	switch rand.IntN(3) {
	case 0:
		delay = rand.IntN(16)
	case 1:
		delay = 15 + rand.IntN(31)
	default:
		delay = 45 + rand.IntN(76)
	}

	orderValue := round2(10.0 + rand.Float64()*140.0)
	errorRate := round2(rand.Float64() * 0.5)
	refundRate := round2(rand.Float64() * 0.6)
	complaintType := domain.ComplaintTypes[rand.IntN(len(domain.ComplaintTypes))]
	photo := rand.IntN(2) == 1

	return []string{
		fmt.Sprintf("CASE%04d", n),
		strconv.FormatFloat(orderValue, 'f', 2, 64),
		strconv.Itoa(delay),
		strconv.FormatFloat(errorRate, 'f', 2, 64),
		strconv.FormatFloat(refundRate, 'f', 2, 64),
		complaintType,
		strconv.FormatBool(photo),
		"false",
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
