package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const samplePayload = `{
  "users": [
    {
      "id": 1,
      "firstName": "Emily",
      "lastName": "Johnson",
      "maidenName": "Smith",
      "age": 28,
      "gender": "female",
      "email": "emily.johnson@x.dummyjson.com",
      "hair": {"color": "Brown", "type": "Curly"},
      "address": {"address": "626 Main Street", "city": "Phoenix", "postalCode": "29112", "coordinates": {"lat": -77.16, "lng": -92.08}},
      "bank": {"cardNumber": "9289760655481815", "iban": "YPUXISOBI7TTHPK2BR3HAIXL"},
      "company": {"department": "Engineering", "name": "Dooley, Kozey and Cronin", "title": "Sales Manager"},
      "ssn": "900-590-289",
      "crypto": {"coin": "Bitcoin"}
    },
    {
      "id": 2,
      "firstName": "Michael",
      "lastName": "Williams",
      "age": 35.5,
      "gender": "male",
      "hair": {"color": "Green", "type": "Straight"},
      "address": {"postalCode": "38807"},
      "company": {"department": "Support"}
    }
  ],
  "total": 208,
  "skip": 0,
  "limit": 30
}`

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.URL = srv.URL + "/users"
	if opts.HTTPClient == nil {
		opts.HTTPClient = srv.Client()
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func asFetchError(t *testing.T, err error) *FetchError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FetchError, got=%T (%v)", err, err)
	}
	return ferr
}

func TestFetchUsersDecodesPayload(t *testing.T) {
	var gotAccept, gotLimit, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotLimit = r.URL.Query().Get("limit")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Query: map[string]string{"limit": "0"}, APIKey: "k-123"})
	users, err := c.FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept: want=%q got=%q", "application/json", gotAccept)
	}
	if gotLimit != "0" {
		t.Fatalf("limit query: want=%q got=%q", "0", gotLimit)
	}
	if gotAuth != "Bearer k-123" {
		t.Fatalf("Authorization: want=%q got=%q", "Bearer k-123", gotAuth)
	}
	if len(users) != 2 {
		t.Fatalf("users: want=%d got=%d", 2, len(users))
	}
	u := users[0]
	if u.FullName() != "EmilyJohnson" {
		t.Fatalf("FullName: want=%q got=%q", "EmilyJohnson", u.FullName())
	}
	if u.Department() != "Engineering" || u.Hair.Color != "Brown" || u.Address.PostalCode != "29112" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if users[1].Age != 35.5 {
		t.Fatalf("fractional age: want=%v got=%v", 35.5, users[1].Age)
	}
}

func TestFetchUsersEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users":[],"total":0}`))
	}))
	defer srv.Close()

	users, err := newTestClient(t, srv, Options{}).FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("users: want=0 got=%d", len(users))
	}
}

func TestFetchUsersMissingUsersKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":0}`))
	}))
	defer srv.Close()

	users, err := newTestClient(t, srv, Options{}).FetchUsers(context.Background())
	ferr := asFetchError(t, err)
	if users != nil {
		t.Fatalf("expected no users on error, got %d", len(users))
	}
	if ferr.Op != OpDecode || !errors.Is(err, ErrMissingUsers) {
		t.Fatalf("want decode/ErrMissingUsers, got op=%s err=%v", ferr.Op, ferr.Err)
	}
}

func TestFetchUsersMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users":[{"firstName": 12`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, Options{}).FetchUsers(context.Background())
	if ferr := asFetchError(t, err); ferr.Op != OpDecode {
		t.Fatalf("Op: want=%q got=%q", OpDecode, ferr.Op)
	}
}

func TestFetchUsersClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Route not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, Options{MaxRetries: 2}).FetchUsers(context.Background())
	ferr := asFetchError(t, err)
	if ferr.Op != OpStatus {
		t.Fatalf("Op: want=%q got=%q", OpStatus, ferr.Op)
	}
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("expected *HTTPError cause, got=%T", ferr.Err)
	}
	if herr.StatusCode != http.StatusNotFound || herr.Message != "Route not found" {
		t.Fatalf("unexpected http error: %+v", herr)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls: want=%d got=%d", 1, n)
	}
}

func TestFetchUsersRetriesServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	users, err := newTestClient(t, srv, Options{MaxRetries: 1}).FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users: want=%d got=%d", 2, len(users))
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls: want=%d got=%d", 2, n)
	}
}

func TestFetchUsersNoRetryByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, Options{}).FetchUsers(context.Background())
	asFetchError(t, err)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls: want=%d got=%d", 1, n)
	}
}

func TestFetchUsersTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv, Options{})
	srv.Close()

	_, err := c.FetchUsers(context.Background())
	if ferr := asFetchError(t, err); ferr.Op != OpRequest {
		t.Fatalf("Op: want=%q got=%q", OpRequest, ferr.Op)
	}
}

func TestFetchUsersTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, Options{Timeout: 50 * time.Millisecond, MaxRetries: 3}).FetchUsers(context.Background())
	ferr := asFetchError(t, err)
	if ferr.Op != OpRequest || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want request/deadline, got op=%s err=%v", ferr.Op, ferr.Err)
	}
}

func TestFetchUsersBodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, Options{MaxBodyBytes: 64}).FetchUsers(context.Background())
	ferr := asFetchError(t, err)
	if ferr.Op != OpRead || !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("want read/ErrBodyTooLarge, got op=%s err=%v", ferr.Op, ferr.Err)
	}
}

func TestNewValidatesURL(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrURLRequired) {
		t.Fatalf("empty url: want ErrURLRequired got=%v", err)
	}
	if _, err := New(Options{URL: "ftp://example.com/users"}); err == nil {
		t.Fatalf("ftp url: expected error")
	}
	c, err := New(Options{URL: "https://dummyjson.com/users?select=age", Query: map[string]string{"limit": "0"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.URL() != "https://dummyjson.com/users?limit=0&select=age" {
		t.Fatalf("URL: got=%q", c.URL())
	}
}
