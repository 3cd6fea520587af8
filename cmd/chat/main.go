package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
)

var (
	serverURL = flag.String("server", "http://localhost:8000", "base URL of the RAG API")
	timeout   = flag.Duration("timeout", 2*time.Minute, "timeout per question")
)

type chatRequest struct {
	Input string `json:"input"`
}

type chatResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error"`
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: *timeout}
	base := strings.TrimRight(*serverURL, "/")

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	// One-shot mode: the question is given as arguments.
	if flag.NArg() > 0 {
		answer, err := ask(ctx, client, base, strings.Join(flag.Args(), " "))
		if err != nil {
			fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
			os.Exit(1)
		}
		fmt.Println(answer)
		return
	}

	fmt.Println(boldGreen("Medical assistant chat"))
	fmt.Printf("Server: %s\n", boldCyan(base))
	fmt.Println("Type your question and press Enter. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") {
			break
		}

		answer, err := ask(ctx, client, base, question)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
			continue
		}

		fmt.Print(boldCyan("Assistant: "))
		fmt.Println(answer)
		fmt.Println()
	}
}

func ask(ctx context.Context, client *http.Client, base, question string) (string, error) {
	payload, err := json.Marshal(chatRequest{Input: question})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", base, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("status %d: unexpected body %q", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error == "" {
			out.Error = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, out.Error)
	}
	if out.Answer == "" {
		return "", errors.New("empty answer")
	}
	return out.Answer, nil
}
