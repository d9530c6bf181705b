package events

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"
)

// NewESClient creates an Elasticsearch client with sane defaults and optional basic auth.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return elasticsearch.NewClient(cfg)
}

// Indexer mirrors account events into the users directory index.
type Indexer struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewIndexer(es *elasticsearch.Client, index string, logger *logrus.Logger) *Indexer {
	return &Indexer{ES: es, Index: index, Logger: logger}
}

type directoryDoc struct {
	ID           string `json:"id"`
	UserName     string `json:"userName"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsAdmin      bool   `json:"isAdmin"`
	Status       bool   `json:"status"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// HandleMessage decodes one queue message and applies it.
func (ix *Indexer) HandleMessage(ctx context.Context, body []byte) error {
	var ev AccountEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return ix.Apply(ctx, ev)
}

// Apply indexes created/updated users and removes deleted ones.
func (ix *Indexer) Apply(ctx context.Context, ev AccountEvent) error {
	switch ev.Type {
	case UserCreated, UserUpdated:
		if ev.User == nil {
			return fmt.Errorf("%s event for %s without user", ev.Type, ev.UserID)
		}
		return ix.index(ctx, ev)
	case UserDeleted:
		return ix.delete(ctx, ev.UserID)
	default:
		ix.Logger.WithField("type", ev.Type).Warn("ignoring unknown account event")
		return nil
	}
}

func (ix *Indexer) index(ctx context.Context, ev AccountEvent) error {
	u := ev.User
	doc := directoryDoc{
		ID:           ev.UserID,
		UserName:     u.UserName,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		IsAdmin:      u.IsAdmin,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:    u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: ix.Index, DocumentID: ev.UserID, Body: bytes.NewReader(b), Refresh: "false"}
	return ix.do(ctx, req, ev.UserID, false)
}

func (ix *Indexer) delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: ix.Index, DocumentID: id}
	return ix.do(ctx, req, id, true)
}

func (ix *Indexer) do(ctx context.Context, req esapi.Request, id string, missingOK bool) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, ix.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if missingOK && res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		ix.Logger.WithField("status", res.Status()).WithField("user_id", id).Warn("es response error")
		return fmt.Errorf("elasticsearch: %s", res.Status())
	}
	return nil
}
