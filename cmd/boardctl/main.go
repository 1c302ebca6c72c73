// boardctl submits ideas to a running boardroom gateway and prints the
// panel's verdicts. With --stream it renders advisor progress live from
// the SSE endpoint.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type runResult struct {
	ID      string `json:"id"`
	Idea    string `json:"idea"`
	Results []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Emoji      string `json:"emoji"`
		Title      string `json:"title"`
		Verdict    string `json:"verdict"`
		Output     string `json:"output"`
		DurationMs int64  `json:"duration_ms"`
	} `json:"results"`
	OverallVerdict string `json:"overall_verdict"`
	OverallLabel   string `json:"overall_label"`
	TotalMs        int64  `json:"total_duration_ms"`
}

type streamFrame struct {
	Type     string   `json:"type"`
	Role     string   `json:"role"`
	Name     string   `json:"name"`
	Emoji    string   `json:"emoji"`
	Title    string   `json:"title"`
	Verdict  string   `json:"verdict"`
	Output   string   `json:"output"`
	Message  string   `json:"message"`
	TotalMs  int64    `json:"total_ms"`
	Verdicts []string `json:"verdicts"`
	Overall  *struct {
		Verdict string `json:"verdict"`
		Label   string `json:"label"`
	} `json:"overall"`
}

func parseArgs(args []string) (flags map[string]string, switches map[string]bool, rest []string) {
	flags = make(map[string]string)
	switches = make(map[string]bool)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--stream" || arg == "--json":
			switches[arg[2:]] = true
		case strings.HasPrefix(arg, "--") && i+1 < len(args):
			flags[arg[2:]] = args[i+1]
			i++
		default:
			rest = append(rest, arg)
		}
	}
	return flags, switches, rest
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, `  boardctl run [--stream] [--json] "<idea>"`)
	fmt.Fprintln(os.Stderr, `  boardctl runs [--limit N]`)
	fmt.Fprintln(os.Stderr, `  boardctl brief --id <run-id>`)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment:")
	fmt.Fprintln(os.Stderr, "  BOARDROOM_URL       Gateway address (default http://localhost:8080)")
	fmt.Fprintln(os.Stderr, "  BOARDROOM_PASSWORD  API password, if the gateway requires one")
	os.Exit(1)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func baseURL() string {
	if url := os.Getenv("BOARDROOM_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	return "http://localhost:8080"
}

func doRequest(method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, baseURL()+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if pass := os.Getenv("BOARDROOM_PASSWORD"); pass != "" {
		req.SetBasicAuth("", pass)
	}
	client := &http.Client{Timeout: 10 * time.Minute}
	return client.Do(req)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	command := os.Args[1]
	flags, switches, rest := parseArgs(os.Args[2:])

	switch command {
	case "run":
		if len(rest) == 0 {
			fatal("an idea is required")
		}
		idea := strings.Join(rest, " ")
		if switches["stream"] {
			runStreaming(idea)
		} else {
			runBlocking(idea, switches["json"])
		}

	case "runs":
		limit := flags["limit"]
		path := "/api/runs"
		if limit != "" {
			path += "?limit=" + limit
		}
		resp, err := doRequest(http.MethodGet, path, nil)
		if err != nil {
			fatal("%v", err)
		}
		defer resp.Body.Close()
		checkStatus(resp)

		var runs []runResult
		if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
			fatal("decode response: %v", err)
		}
		for _, r := range runs {
			fmt.Printf("%s  %-20s  %s\n", r.ID, r.OverallVerdict, truncateIdea(r.Idea, 60))
		}

	case "brief":
		id := flags["id"]
		if id == "" {
			fatal("--id is required")
		}
		resp, err := doRequest(http.MethodGet, "/api/runs/"+id+"/brief", nil)
		if err != nil {
			fatal("%v", err)
		}
		defer resp.Body.Close()
		checkStatus(resp)
		io.Copy(os.Stdout, resp.Body)

	default:
		usage()
	}
}

func runBlocking(idea string, asJSON bool) {
	body, _ := json.Marshal(map[string]string{"idea": idea})
	resp, err := doRequest(http.MethodPost, "/api/runs", body)
	if err != nil {
		fatal("%v", err)
	}
	defer resp.Body.Close()
	checkStatus(resp)

	if asJSON {
		io.Copy(os.Stdout, resp.Body)
		return
	}

	var run runResult
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		fatal("decode response: %v", err)
	}
	printRun(&run)
}

func runStreaming(idea string) {
	body, _ := json.Marshal(map[string]string{"idea": idea})
	resp, err := doRequest(http.MethodPost, "/api/runs/stream", body)
	if err != nil {
		fatal("%v", err)
	}
	defer resp.Body.Close()
	checkStatus(resp)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame streamFrame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "thinking":
			fmt.Printf("%s %s (%s) is thinking...\n", frame.Emoji, frame.Name, frame.Title)
		case "result":
			fmt.Printf("\n%s %s: %s\n%s\n", frame.Emoji, frame.Name, frame.Verdict, frame.Output)
		case "error":
			fmt.Printf("\n%s failed: %s\n", frame.Name, frame.Message)
		case "summary":
			fmt.Printf("\nVerdicts: %s\n", strings.Join(frame.Verdicts, " "))
			if frame.Overall != nil {
				fmt.Printf("Overall: %s (%s)\n", frame.Overall.Verdict, frame.Overall.Label)
			}
			fmt.Printf("Completed in %.1fs\n", float64(frame.TotalMs)/1000)
		}
	}
	if err := scanner.Err(); err != nil {
		fatal("read stream: %v", err)
	}
}

func printRun(run *runResult) {
	fmt.Printf("Run %s\n\n", run.ID)
	for _, r := range run.Results {
		fmt.Printf("%s %s (%s): %s\n%s\n\n", r.Emoji, r.Name, r.Title, r.Verdict, r.Output)
	}
	fmt.Printf("Overall: %s (%s)\n", run.OverallVerdict, run.OverallLabel)
	fmt.Printf("Completed in %.1fs\n", float64(run.TotalMs)/1000)
}

func checkStatus(resp *http.Response) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		fatal("%s (status %d)", apiErr.Error, resp.StatusCode)
	}
	fatal("request failed with status %d", resp.StatusCode)
}

func truncateIdea(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
