package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	ExpectStatus int    `json:"expect_status"`
	Critical     bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target   target
	Status   int
	OK       bool
	Error    error
	Duration time.Duration
}

func main() {
	var (
		baseURL     string
		token       string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated endpoints")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		breaking int
		warnings int
	)

	for _, t := range targets {
		res := checkTarget(client, baseURL, token, t)
		if !res.OK {
			if t.Critical {
				breaking++
			} else {
				warnings++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Failures: %d critical, %d optional\n", breaking, warnings)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func checkTarget(client *http.Client, base, token string, tgt target) result {
	res := result{Target: tgt}

	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	expect := tgt.ExpectStatus
	if expect == 0 {
		expect = http.StatusOK
	}
	res.OK = res.Status == expect
	return res
}

func printReport(results []result) {
	for _, r := range results {
		state := "ok"
		if r.Error != nil {
			state = "error: " + r.Error.Error()
		} else if !r.OK {
			state = fmt.Sprintf("unexpected status %d", r.Status)
		}
		fmt.Printf("%-6s %-50s %-10s %s\n",
			strings.ToUpper(r.Target.Method), r.Target.Path, r.Duration.Round(time.Millisecond), state)
	}
}
