package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkminsu/janbu/internal/errs"
	"github.com/parkminsu/janbu/internal/record"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(srv.URL, "test-key", nil)
	require.NoError(t, err)
	return c, srv
}

func TestListDecodesRecords(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/collections/orders", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"id":"O1","order_status":"received"},{"id":"O2"}]`)
	}))

	records, err := c.List(context.Background(), record.Orders)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "O1", records[0].ID())
	assert.Equal(t, "received", records[0].Str(record.FieldOrderStatus))
}

func TestListEmptyBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `null`)
	}))

	records, err := c.List(context.Background(), record.Orders)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestListServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.List(context.Background(), record.Orders)
	assert.True(t, errs.IsNetwork(err))
}

func TestListUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // no one listening
	c, err := NewHTTPClient(srv.URL, "", nil)
	require.NoError(t, err)

	_, err = c.List(context.Background(), record.Orders)
	assert.True(t, errs.IsNetwork(err))
}

func TestUpsertPostsRecord(t *testing.T) {
	var got record.Fields
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/customers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.Upsert(context.Background(), record.Customers, record.Fields{"id": "C1", "name": "Kim"})
	require.NoError(t, err)
	assert.Equal(t, "C1", got.ID())
	assert.Equal(t, "Kim", got.Str("name"))
}

func TestDeleteTreatsNotFoundAsSuccess(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/collections/orders/O1", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))

	assert.NoError(t, c.Delete(context.Background(), record.Orders, "O1"))
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "healthy", status: http.StatusOK},
		{name: "service unavailable", status: http.StatusServiceUnavailable, wantErr: true},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			err := c.Probe(context.Background())
			if tt.wantErr {
				assert.True(t, errs.IsNetwork(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubscribeParsesEvents(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/orders/events", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: INSERT\n")
		fmt.Fprint(w, "data: {\"new\":{\"id\":\"O1\",\"order_status\":\"received\"}}\n")
		fmt.Fprint(w, "\n")
		fmt.Fprint(w, ": keepalive comment, ignored\n")
		fmt.Fprint(w, "event: UPDATE\n")
		fmt.Fprint(w, "data: {\"new\":{\"id\":\"O1\",\"order_status\":\"shipped\"},\"old\":{\"id\":\"O1\"}}\n")
		fmt.Fprint(w, "\n")
		fmt.Fprint(w, "event: DELETE\n")
		fmt.Fprint(w, "data: {\"old\":{\"id\":\"O1\"}}\n")
		fmt.Fprint(w, "\n")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.Subscribe(ctx, record.Orders)
	require.NoError(t, err)

	var deltas []Delta
	for d := range ch {
		deltas = append(deltas, d)
	}
	require.Len(t, deltas, 3)

	assert.Equal(t, EventInsert, deltas[0].Type)
	assert.Equal(t, record.Orders, deltas[0].Collection)
	assert.Equal(t, "O1", deltas[0].ID())

	assert.Equal(t, EventUpdate, deltas[1].Type)
	assert.Equal(t, "shipped", deltas[1].New.Str(record.FieldOrderStatus))
	assert.Equal(t, "O1", deltas[1].Old.ID())

	assert.Equal(t, EventDelete, deltas[2].Type)
	assert.Nil(t, deltas[2].New)
	assert.Equal(t, "O1", deltas[2].ID())
}

func TestSubscribeDropsMalformedEvents(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: INSERT\n")
		fmt.Fprint(w, "data: {broken json\n")
		fmt.Fprint(w, "\n")
		fmt.Fprint(w, "event: REPLACE\n") // unknown event type
		fmt.Fprint(w, "data: {\"new\":{\"id\":\"X\"}}\n")
		fmt.Fprint(w, "\n")
		fmt.Fprint(w, "event: INSERT\n")
		fmt.Fprint(w, "data: {\"new\":{\"id\":\"O2\"}}\n")
		fmt.Fprint(w, "\n")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.Subscribe(ctx, record.Orders)
	require.NoError(t, err)

	var deltas []Delta
	for d := range ch {
		deltas = append(deltas, d)
	}
	require.Len(t, deltas, 1, "malformed and unknown events dropped without killing the stream")
	assert.Equal(t, "O2", deltas[0].ID())
}

func TestSubscribeServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.Subscribe(context.Background(), record.Orders)
	assert.True(t, errs.IsNetwork(err))
}

func TestEndpointJoinsBasePath(t *testing.T) {
	c, err := NewHTTPClient("http://localhost:8090/api/", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8090/api/collections/orders", c.endpoint("collections", "orders"))
}
