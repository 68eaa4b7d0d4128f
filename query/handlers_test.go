package query

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-connect/core"
)

type stubConnectionReader struct {
	connected         bool
	connections       []core.AccountConnection
	providerAccountID string
	found             bool
	err               error
}

func (s stubConnectionReader) IsConnected(context.Context) (bool, error) {
	return s.connected, s.err
}

func (s stubConnectionReader) Connections(context.Context) ([]core.AccountConnection, error) {
	return s.connections, s.err
}

func (s stubConnectionReader) ProviderAccountID(context.Context) (string, bool, error) {
	return s.providerAccountID, s.found, s.err
}

func TestIsConnectedQuery(t *testing.T) {
	q := NewIsConnectedQuery(stubConnectionReader{connected: true})
	connected, err := q.Query(context.Background(), IsConnectedMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !connected {
		t.Fatalf("expected connected")
	}
}

func TestListConnectionsQuery(t *testing.T) {
	reader := stubConnectionReader{connections: []core.AccountConnection{
		{ID: "conn-1", ProviderName: "twitter"},
	}}
	connections, err := NewListConnectionsQuery(reader).Query(context.Background(), ListConnectionsMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(connections) != 1 || connections[0].ID != "conn-1" {
		t.Fatalf("unexpected connections: %#v", connections)
	}
}

func TestGetProviderAccountIDQuery(t *testing.T) {
	reader := stubConnectionReader{providerAccountID: "acct-42", found: true}
	ref, err := NewGetProviderAccountIDQuery(reader).Query(context.Background(), GetProviderAccountIDMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !ref.Found || ref.ProviderAccountID != "acct-42" {
		t.Fatalf("unexpected ref: %#v", ref)
	}
}

func TestGetProviderAccountIDQuery_Absent(t *testing.T) {
	ref, err := NewGetProviderAccountIDQuery(stubConnectionReader{}).Query(context.Background(), GetProviderAccountIDMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if ref.Found || ref.ProviderAccountID != "" {
		t.Fatalf("expected absent ref, got %#v", ref)
	}
}

func TestQueries_SurfaceReaderErrors(t *testing.T) {
	sentinel := errors.New("reader failed")
	reader := stubConnectionReader{err: sentinel}

	if _, err := NewIsConnectedQuery(reader).Query(context.Background(), IsConnectedMessage{}); !errors.Is(err, sentinel) {
		t.Fatalf("expected reader error, got %v", err)
	}
	if _, err := NewGetProviderAccountIDQuery(reader).Query(context.Background(), GetProviderAccountIDMessage{}); !errors.Is(err, sentinel) {
		t.Fatalf("expected reader error, got %v", err)
	}
}

func TestQueries_RequireReader(t *testing.T) {
	if _, err := (&IsConnectedQuery{}).Query(context.Background(), IsConnectedMessage{}); err == nil {
		t.Fatalf("expected dependency error for missing reader")
	}
	if _, err := (&ListConnectionsQuery{}).Query(context.Background(), ListConnectionsMessage{}); err == nil {
		t.Fatalf("expected dependency error for missing reader")
	}
}
