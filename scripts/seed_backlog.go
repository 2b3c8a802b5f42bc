// seed_backlog.go parses TODO.md and ranks its open items through the Triage API.
//
// Usage:
//
//	go run scripts/seed_backlog.go -todo /path/to/TODO.md -api http://localhost:8610 -caller system
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type rawTask struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Priority *int     `json:"priority,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

type rankRequest struct {
	Source string    `json:"source"`
	Tasks  []rawTask `json:"tasks"`
}

type rankResponse struct {
	RunID string `json:"run_id"`
	Tasks []struct {
		TaskID string  `json:"task_id"`
		Title  string  `json:"title"`
		Score  float64 `json:"score"`
	} `json:"tasks"`
	Rejected []struct {
		TaskID string `json:"task_id"`
		Reason string `json:"error"`
	} `json:"rejected"`
}

// Priority emoji to declared priority
var priorityMap = map[string]int{
	"🔴": 1,
	"🟠": 2,
	"🟡": 3,
	"🟢": 4,
}

// Sections to skip
var skipSections = map[string]bool{
	"personal":        true,
	"career":          true,
	"health":          true,
	"growth":          true,
	"personal/career": true,
}

func main() {
	todoPath := flag.String("todo", "TODO.md", "path to TODO.md file")
	apiURL := flag.String("api", "http://localhost:8610", "Triage API base URL")
	callerID := flag.String("caller", "system", "X-Caller-ID header value")
	dryRun := flag.Bool("dry-run", false, "print the request without posting")
	flag.Parse()

	f, err := os.Open(*todoPath)
	if err != nil {
		log.Fatalf("open TODO.md: %v", err)
	}
	defer f.Close()

	tasks, err := parseTodo(f)
	if err != nil {
		log.Fatalf("scan TODO.md: %v", err)
	}
	log.Printf("parsed %d open items from %s", len(tasks), *todoPath)

	body, _ := json.MarshalIndent(rankRequest{Source: "seed", Tasks: tasks}, "", "  ")
	if *dryRun {
		fmt.Println(string(body))
		return
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/rank", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-ID", *callerID)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("post batch: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		log.Fatalf("rank failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var ranked rankResponse
	if err := json.NewDecoder(resp.Body).Decode(&ranked); err != nil {
		log.Fatalf("decode response: %v", err)
	}

	fmt.Printf("run %s\n", ranked.RunID)
	for i, t := range ranked.Tasks {
		fmt.Printf("%3d. %6.2f  %s\n", i+1, t.Score, t.Title)
	}
	for _, r := range ranked.Rejected {
		fmt.Printf("rejected %s: %s\n", r.TaskID, r.Reason)
	}
}

// parseTodo collects unchecked "- [ ]" items. Checked items are skipped.
func parseTodo(r io.Reader) ([]rawTask, error) {
	var tasks []rawTask
	var currentSection string
	var skipCurrent bool
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()

		// Detect section headers
		if strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "# ") {
			header := strings.TrimLeft(line, "# ")
			currentSection = strings.ToLower(strings.TrimSpace(header))

			skipCurrent = false
			for skip := range skipSections {
				if strings.Contains(currentSection, skip) {
					skipCurrent = true
					break
				}
			}
			continue
		}

		if skipCurrent {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- [ ] ") {
			continue
		}
		text := strings.TrimPrefix(trimmed, "- [ ] ")

		var priority *int
		for emoji, p := range priorityMap {
			if strings.Contains(text, emoji) {
				val := p
				priority = &val
				text = strings.TrimSpace(strings.ReplaceAll(text, emoji, ""))
				break
			}
		}

		var labels []string
		var words []string
		for _, w := range strings.Fields(text) {
			if len(w) > 1 && strings.HasPrefix(w, "#") {
				labels = append(labels, strings.ToLower(strings.TrimPrefix(w, "#")))
				continue
			}
			words = append(words, w)
		}
		if section := sectionLabel(currentSection); section != "" {
			labels = append(labels, section)
		}

		tasks = append(tasks, rawTask{
			ID:       fmt.Sprintf("todo-%d", len(tasks)+1),
			Title:    strings.Join(words, " "),
			Priority: priority,
			Labels:   labels,
		})
	}
	return tasks, scanner.Err()
}

func sectionLabel(section string) string {
	switch {
	case strings.Contains(section, "infra"):
		return "infrastructure"
	case strings.Contains(section, "product"):
		return "product"
	case strings.Contains(section, "ops") || strings.Contains(section, "operation"):
		return "operations"
	case strings.Contains(section, "research"):
		return "research"
	case strings.Contains(section, "agent"):
		return "agents"
	case strings.Contains(section, "api"):
		return "api"
	case strings.Contains(section, "security"):
		return "security"
	default:
		return strings.ReplaceAll(section, " ", "-")
	}
}
