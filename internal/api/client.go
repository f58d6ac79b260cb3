package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tonhe/netflo/internal/monitor"
	"github.com/tonhe/netflo/internal/store"
	"github.com/tonhe/netflo/internal/topology"
)

// ErrBadRequest is wrapped by client errors for HTTP 400 responses.
var ErrBadRequest = errors.New("bad request")

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	}
	return nil
}

// Client is a monitor.Backend talking to a running server.
type Client struct {
	base   *url.URL
	key    string
	http   *http.Client
	dialer *websocket.Dialer
	log    *logrus.Entry
}

var _ monitor.Backend = (*Client)(nil)

// NewClient returns a Client for the server at baseURL. key is sent as a
// bearer token when non-empty.
func NewClient(baseURL, key string, log *logrus.Entry) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL must be http or https, got %q", baseURL)
	}
	return &Client{
		base:   u,
		key:    key,
		http:   &http.Client{Timeout: 30 * time.Second},
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log,
	}, nil
}

func (c *Client) Devices(ctx context.Context) ([]topology.DeviceView, error) {
	var views []topology.DeviceView
	err := c.do(ctx, http.MethodGet, DevicesPath, nil, &views)
	return views, err
}

func (c *Client) Links(ctx context.Context) ([]topology.Link, error) {
	var links []topology.Link
	err := c.do(ctx, http.MethodGet, LinksPath, nil, &links)
	return links, err
}

func (c *Client) AddDevice(ctx context.Context, in topology.NewDevice) (topology.Device, error) {
	var d topology.Device
	err := c.do(ctx, http.MethodPost, DevicesPath, in, &d)
	return d, err
}

func (c *Client) RemoveDevice(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, DevicesPath+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ConnectDevices(ctx context.Context, in topology.NewLink) (topology.Link, error) {
	var l topology.Link
	err := c.do(ctx, http.MethodPost, LinksPath, in, &l)
	return l, err
}

func (c *Client) Poll(ctx context.Context) (monitor.PollResult, error) {
	var res monitor.PollResult
	err := c.do(ctx, http.MethodPost, PollPath, nil, &res)
	return res, err
}

func (c *Client) History(ctx context.Context, deviceID string, limit int) ([]topology.StatSample, error) {
	path := DevicesPath + "/" + url.PathEscape(deviceID) + "/stats?limit=" + strconv.Itoa(limit)
	var stats []topology.StatSample
	err := c.do(ctx, http.MethodGet, path, nil, &stats)
	return stats, err
}

// Subscribe opens the realtime websocket. The channel closes when ctx is
// done or the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan store.Change, error) {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += RealtimePath

	conn, _, err := c.dialer.DialContext(ctx, u.String(), c.headers())
	if err != nil {
		return nil, fmt.Errorf("connecting to realtime feed: %w", err)
	}

	out := make(chan store.Change)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var w wireChange
			if err := conn.ReadJSON(&w); err != nil {
				if ctx.Err() == nil {
					c.log.WithError(err).Warn("realtime feed closed")
				}
				return
			}
			change, err := w.decode()
			if err != nil {
				c.log.WithError(err).Warn("skipping realtime message")
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	if c.key != "" {
		h.Set("Authorization", "Bearer "+c.key)
	}
	return h
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header = c.headers()
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// wireChange is a Change as it travels over the websocket.
type wireChange struct {
	Table store.Table     `json:"table"`
	Op    store.Op        `json:"op"`
	Row   json.RawMessage `json:"row"`
}

func (w wireChange) decode() (store.Change, error) {
	c := store.Change{Table: w.Table, Op: w.Op}
	var err error
	switch w.Table {
	case store.TableDevices:
		var d topology.Device
		err = json.Unmarshal(w.Row, &d)
		c.Row = d
	case store.TableStats:
		var s topology.StatSample
		err = json.Unmarshal(w.Row, &s)
		c.Row = s
	case store.TableLinks:
		var l topology.Link
		err = json.Unmarshal(w.Row, &l)
		c.Row = l
	default:
		return c, fmt.Errorf("unknown table %q", w.Table)
	}
	return c, err
}
