package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eventyard/eventyard-backend/pkg/config"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testMailerConfig(url string) config.MailerConfig {
	return config.MailerConfig{
		RelayURL:       url,
		APIKey:         "test-key",
		FromAddress:    "no-reply@eventyard.io",
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
		RequestTimeout: time.Second,
	}
}

func TestSendSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/api/send-message", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client, err := NewClient(testMailerConfig(server.URL), nil, nil)
	require.NoError(t, err)

	result, err := client.Send(context.Background(), Message{
		To:      "guest@example.com",
		Subject: "Reservation confirmed",
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Attempts)
	require.EqualValues(t, 1, calls.Load())
}

func TestSendRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"status":"error","message":"upstream busy"}`))
			return
		}
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client, err := NewClient(testMailerConfig(server.URL), nil, nil)
	require.NoError(t, err)

	result, err := client.Send(context.Background(), Message{
		To:      "guest@example.com",
		Subject: "Check-in reminder",
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Attempts)
}

func TestSendSurfacesDependencyErrorAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"status":"error","message":"invalid api key"}`))
	}))
	defer server.Close()

	client, err := NewClient(testMailerConfig(server.URL), nil, nil)
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Message{
		To:      "guest@example.com",
		Subject: "Receipt",
	})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.EqualValues(t, 3, calls.Load())
}

func TestSendStaffCopy(t *testing.T) {
	recipients := make(chan string, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		recipients <- msg.To
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	cfg := testMailerConfig(server.URL)
	cfg.NotifyStaff = true
	cfg.StaffAddress = "staff@eventyard.io"

	client, err := NewClient(cfg, nil, nil)
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Message{To: "guest@example.com", Subject: "hi"})
	require.NoError(t, err)
	require.Equal(t, "guest@example.com", <-recipients)
	require.Equal(t, "staff@eventyard.io", <-recipients)
}

func TestSendRequiresRecipient(t *testing.T) {
	client, err := NewClient(testMailerConfig("http://localhost:9"), nil, nil)
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Message{Subject: "hi"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
