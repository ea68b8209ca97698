package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Tobijimoh/trade-capture-system/internal/auth"
	"github.com/Tobijimoh/trade-capture-system/internal/types"
)

const (
	minTrades     = 10
	maxTrades     = 50
	numWorkers    = 5
	serverAddress = "http://localhost:8080"
)

var (
	books          = []string{"FX-DESK-1", "RATES-DESK-1", "CREDIT-DESK-1"}
	counterparties = []string{"ACME Bank", "Globex Capital", "Initech Securities"}
	indexNames     = []string{"SOFR", "EURIBOR-3M", "SONIA"}
	schedules      = []string{"Monthly", "Quarterly", "SemiAnnual", "Annual"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes min, max, mean and median durations for the route
func (rs *routeStats) calculate() (min, max, mean, median time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	return
}

// simulationClient handles HTTP communication with the trade capture API
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
	statsMu   sync.Mutex
}

// newSimulationClient creates and authenticates a new simulation client
func newSimulationClient() (*simulationClient, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"auth":     {name: "Authentication"},
			"refdata":  {name: "Create Reference Data"},
			"create":   {name: "Create Trade"},
			"amend":    {name: "Amend Trade"},
			"get":      {name: "Get Trade"},
			"cancel":   {name: "Cancel Trade"},
			"cashflow": {name: "Get Cashflows"},
		},
	}

	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token

	return sc, nil
}

func (sc *simulationClient) record(route string, start time.Time, err error) {
	sc.statsMu.Lock()
	defer sc.statsMu.Unlock()
	rs := sc.stats[route]
	rs.addDuration(time.Since(start))
	if err != nil {
		rs.failures++
	}
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate() (string, error) {
	start := time.Now()

	credentials := map[string]string{
		"api_key":    auth.TestAPIKey,
		"api_secret": auth.TestAPISecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	sc.record("auth", start, err)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Data.Token, nil
}

// doJSON performs an authenticated JSON request and decodes the data payload
func (sc *simulationClient) doJSON(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sc.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(envelope.Data, out)
}

// seedReferenceData creates the books and counterparties trades will use
func (sc *simulationClient) seedReferenceData() error {
	start := time.Now()
	var firstErr error

	for _, name := range books {
		book := map[string]string{"name": name}
		if err := sc.doJSON("POST", "/api/v1/refdata/books", book, nil); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, name := range counterparties {
		cp := map[string]string{"name": name}
		if err := sc.doJSON("POST", "/api/v1/refdata/counterparties", cp, nil); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	sc.record("refdata", start, firstErr)
	return firstErr
}

// randomSubmission builds a plausible two-leg trade submission
func randomSubmission() *types.TradeSubmission {
	tradeDate := time.Now().AddDate(0, 0, -rand.Intn(10))
	startDate := tradeDate.AddDate(0, 0, 2)
	maturity := startDate.AddDate(rand.Intn(4)+1, 0, 0)

	fixedRate := decimal.NewFromFloat(float64(rand.Intn(500)) / 10000.0)
	floatRate := decimal.NewFromFloat(float64(rand.Intn(100)) / 10000.0)
	notional := decimal.NewFromInt(int64(rand.Intn(90)+10) * 100000)
	schedule := schedules[rand.Intn(len(schedules))]

	return &types.TradeSubmission{
		TradeDate:        &tradeDate,
		StartDate:        &startDate,
		MaturityDate:     &maturity,
		BookName:         books[rand.Intn(len(books))],
		CounterpartyName: counterparties[rand.Intn(len(counterparties))],
		TradeStatus:      "NEW",
		Legs: []types.TradeLegSubmission{
			{
				Notional:   notional,
				Rate:       &fixedRate,
				LegType:    "Fixed",
				PayReceive: "Pay",
				Schedule:   schedule,
			},
			{
				Notional:   notional,
				Rate:       &floatRate,
				LegType:    "Floating",
				PayReceive: "Receive",
				IndexName:  indexNames[rand.Intn(len(indexNames))],
				Schedule:   schedule,
			},
		},
	}
}

// runLifecycle books one trade and walks it through a random slice of its
// lifecycle: fetch, maybe amend, maybe cancel.
func (sc *simulationClient) runLifecycle() error {
	sub := randomSubmission()

	var created types.TradeResponse
	start := time.Now()
	err := sc.doJSON("POST", "/api/v1/trades", sub, &created)
	sc.record("create", start, err)
	if err != nil {
		return err
	}

	start = time.Now()
	err = sc.doJSON("GET", "/api/v1/trades/"+created.TradeID, nil, nil)
	sc.record("get", start, err)
	if err != nil {
		return err
	}

	start = time.Now()
	err = sc.doJSON("GET", "/api/v1/trades/"+created.TradeID+"/cashflows", nil, nil)
	sc.record("cashflow", start, err)
	if err != nil {
		return err
	}

	if rand.Intn(2) == 0 {
		amendment := randomSubmission()
		amendment.TradeStatus = "AMENDED"

		var amended types.TradeResponse
		start = time.Now()
		err = sc.doJSON("PUT", "/api/v1/trades/"+created.TradeID, amendment, &amended)
		sc.record("amend", start, err)
		if err != nil {
			return err
		}
		if amended.Version != created.Version+1 {
			return fmt.Errorf("expected version %d after amendment, got %d", created.Version+1, amended.Version)
		}
	}

	if rand.Intn(4) == 0 {
		start = time.Now()
		err = sc.doJSON("POST", "/api/v1/trades/"+created.TradeID+"/cancel", nil, nil)
		sc.record("cancel", start, err)
		if err != nil {
			return err
		}
	}

	return nil
}

// printStats logs the collected route statistics
func (sc *simulationClient) printStats() {
	sc.statsMu.Lock()
	defer sc.statsMu.Unlock()

	for _, rs := range sc.stats {
		if rs.totalCalls == 0 {
			continue
		}
		min, max, mean, median := rs.calculate()
		log.Info().
			Str("route", rs.name).
			Int("calls", rs.totalCalls).
			Int("failures", rs.failures).
			Dur("min", min).
			Dur("max", max).
			Dur("mean", mean).
			Dur("median", median).
			Msg("route statistics")
	}
}

func main() {
	sc, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create simulation client")
	}

	if err := sc.seedReferenceData(); err != nil {
		log.Warn().Err(err).Msg("reference data seeding reported errors, continuing")
	}

	total := minTrades + rand.Intn(maxTrades-minTrades)
	log.Info().Int("trades", total).Int("workers", numWorkers).Msg("starting booking simulation")

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				if err := sc.runLifecycle(); err != nil {
					log.Error().Err(err).Msg("trade lifecycle failed")
				}
			}
		}()
	}

	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sc.printStats()
	log.Info().Msg("simulation complete")
}
