package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
)

// loadUser is the record inserted by the load command
type loadUser struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

// loadResult summarises a load run
type loadResult struct {
	Attempted int
	Succeeded int64
	Failed    int64
	Elapsed   time.Duration
}

func newLoadCmd() *cobra.Command {
	loadCmd := &cobra.Command{
		Use:   "load <number_of_users>",
		Short: "Insert random users into a running server, from several concurrent workers",
		Long: `Insert random users into a running server. Several workers insert at the
same time, so with concurrent writes enabled on the server most inserts race
each other and have to be retried.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var numUsers int
			if _, err := fmt.Sscanf(args[0], "%d", &numUsers); err != nil || numUsers <= 0 {
				return fmt.Errorf("invalid number of users %q: must be a positive integer", args[0])
			}
			serverURL, _ := cmd.Flags().GetString("url")
			collection, _ := cmd.Flags().GetString("collection")
			workers, _ := cmd.Flags().GetInt("workers")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Starting load test: inserting %d users to %s with %d workers\n", numUsers, serverURL, workers)

			result := runLoad(cmd.Context(), serverURL, collection, numUsers, workers)

			fmt.Fprintln(out, strings.Repeat("=", 60))
			fmt.Fprintln(out, "LOAD TEST COMPLETE")
			fmt.Fprintln(out, strings.Repeat("=", 60))
			fmt.Fprintf(out, "Total users attempted: %d\n", result.Attempted)
			fmt.Fprintf(out, "Successful inserts:    %d\n", result.Succeeded)
			fmt.Fprintf(out, "Failed inserts:        %d\n", result.Failed)
			fmt.Fprintf(out, "Total time:            %v\n", result.Elapsed)
			fmt.Fprintf(out, "Average rate:          %.2f users/sec\n", float64(result.Attempted)/result.Elapsed.Seconds())

			if result.Failed > 0 {
				return fmt.Errorf("%d of %d inserts failed", result.Failed, result.Attempted)
			}
			return nil
		},
	}

	loadCmd.Flags().String("url", "http://localhost:8080", "Base URL of the server")
	loadCmd.Flags().String("collection", "users", "Collection to insert into")
	loadCmd.Flags().Int("workers", 4, "Number of concurrent workers")

	return loadCmd
}

// runLoad inserts numUsers random users from the given number of workers
func runLoad(ctx context.Context, serverURL, collection string, numUsers, workers int) loadResult {
	if workers < 1 {
		workers = 1
	}

	client := newLoadClient()

	jobs := make(chan loadUser)
	var succeeded, failed int64
	var wg sync.WaitGroup

	startTime := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				if err := insertUser(ctx, client, serverURL, collection, user); err != nil {
					atomic.AddInt64(&failed, 1)
				} else {
					atomic.AddInt64(&succeeded, 1)
				}
			}
		}()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < numUsers; i++ {
		name := generateRandomName(rng)
		jobs <- loadUser{
			Name:  name,
			Age:   generateRandomAge(rng),
			Email: fmt.Sprintf("%s@example.com", strings.ToLower(name)),
		}
	}
	close(jobs)
	wg.Wait()

	return loadResult{
		Attempted: numUsers,
		Succeeded: succeeded,
		Failed:    failed,
		Elapsed:   time.Since(startTime),
	}
}

// newLoadClient builds the insert client. Inserts are not idempotent, so only
// requests that never reached the server are retried.
func newLoadClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.CheckRetry = retryOnDialError
	client.Logger = hclog.NewNullLogger()
	return client
}

// retryOnDialError retries only when the connection could not be opened
func retryOnDialError(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	var opErr *net.OpError
	if err != nil && errors.As(err, &opErr) && opErr.Op == "dial" {
		return true, nil
	}
	return false, nil
}

// insertUser sends a POST request to insert a user
func insertUser(ctx context.Context, client *retryablehttp.Client, baseURL, collection string, user loadUser) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/collections/"+collection, bytes.NewReader(userJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// generateRandomName generates a random 6-letter name
func generateRandomName(rng *rand.Rand) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	name := make([]byte, 6)
	for i := range name {
		name[i] = letters[rng.Intn(len(letters))]
	}
	// Capitalize first letter
	name[0] = name[0] - 32
	return string(name)
}

// generateRandomAge generates a random age between 18 and 99
func generateRandomAge(rng *rand.Rand) int {
	return rng.Intn(82) + 18
}
