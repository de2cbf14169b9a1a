package main

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-blobdb/pkg/records"
	"github.com/adfharrison1/go-blobdb/pkg/server"
	"github.com/adfharrison1/go-blobdb/pkg/storage"
)

func TestRunLoad(t *testing.T) {
	provider, err := records.NewBlobRecordProvider(storage.NewMemoryStorage(),
		records.WithConcurrentWrites(false),
		records.WithRetryPolicy(records.RetryPolicy{MaxAttempts: 10, BaseDelay: time.Millisecond, Factor: 2}),
	)
	require.NoError(t, err)
	defer provider.Close()

	ts := httptest.NewServer(server.NewServer(provider, nil, nil).Router())
	defer ts.Close()

	result := runLoad(context.Background(), ts.URL, "users", 40, 4)
	assert.Equal(t, 40, result.Attempted)
	assert.EqualValues(t, 40, result.Succeeded)
	assert.EqualValues(t, 0, result.Failed)

	users, err := provider.GetAll(context.Background(), "users")
	require.NoError(t, err)
	assert.Len(t, users, 40)
	for _, user := range users {
		assert.Len(t, user["_id"], 36)
		assert.Len(t, user["name"], 6)
	}
}

func TestRunLoad_ServerDown(t *testing.T) {
	ts := httptest.NewServer(nil)
	serverURL := ts.URL
	ts.Close()

	result := runLoad(context.Background(), serverURL, "users", 3, 2)
	assert.EqualValues(t, 3, result.Failed)
}

func TestRunLoad_DoesNotRepeatInserts(t *testing.T) {
	var requests int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	result := runLoad(context.Background(), ts.URL, "users", 3, 1)
	assert.EqualValues(t, 3, result.Failed)
	assert.EqualValues(t, 0, result.Succeeded)
	assert.EqualValues(t, 3, atomic.LoadInt64(&requests))
}

func TestRetryOnDialError(t *testing.T) {
	ctx := context.Background()
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	readErr := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}

	tests := []struct {
		name     string
		resp     *http.Response
		err      error
		expected bool
	}{
		{name: "dial error", err: dialErr, expected: true},
		{name: "wrapped dial error", err: &url.Error{Op: "Post", URL: "http://localhost", Err: dialErr}, expected: true},
		{name: "read error", err: readErr, expected: false},
		{name: "server error", resp: &http.Response{StatusCode: http.StatusInternalServerError}, expected: false},
		{name: "created", resp: &http.Response{StatusCode: http.StatusCreated}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, err := retryOnDialError(ctx, tt.resp, tt.err)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, retry)
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err := retryOnDialError(cancelled, nil, dialErr)
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateRandomUser(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		name := generateRandomName(rng)
		assert.Len(t, name, 6)
		assert.True(t, name[0] >= 'A' && name[0] <= 'Z')

		age := generateRandomAge(rng)
		assert.GreaterOrEqual(t, age, 18)
		assert.LessOrEqual(t, age, 99)
	}
}

func TestCLI_LoadInvalidCount(t *testing.T) {
	_, err := runCLI(t, "load", "zero")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid number of users")
}
