package mailparse

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

const dialTimeout = 25 * time.Second

// ConnectError wraps an IMAP dial/login failure. AppPasswordHint is set for
// Gmail auth rejections, where a regular account password never works and
// the fix is generating an app password.
type ConnectError struct {
	Stage string // "dial", "login", "select"
	Host  string
	Err   error

	AppPasswordHint bool
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("imap %s %s: %v", e.Stage, e.Host, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// RawEmail is one fetched message, body unparsed.
type RawEmail struct {
	UID  imap.UID
	Date time.Time
	Raw  []byte
}

// Fetcher hides the IMAP client so the sync loop can be tested with a fake.
type Fetcher interface {
	FetchSince(ctx context.Context, since time.Time, max int) ([]RawEmail, error)
	Close()
}

// Client wraps one logged-in IMAP connection with a selected mailbox.
type Client struct {
	c    *imapclient.Client
	host string
}

// DialAndLogin connects over TLS, authenticates, and selects mailbox
// read-only. mailbox is the Sent folder name, which varies by provider
// ("[Gmail]/Sent Mail", "Sent", "Sent Items").
func DialAndLogin(ctx context.Context, host string, port int, username, password, mailbox string) (*Client, error) {
	if host == "" {
		return nil, errors.New("imap host is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, "tcp", addr,
		&tls.Config{MinVersion: tls.VersionTLS12, ServerName: host})
	if err != nil {
		return nil, &ConnectError{Stage: "dial", Host: host, Err: err}
	}
	c := imapclient.New(conn, &imapclient.Options{})

	// Best-effort close on context cancel.
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, &ConnectError{
			Stage:           "login",
			Host:            host,
			Err:             err,
			AppPasswordHint: strings.Contains(strings.ToLower(host), "gmail"),
		}
	}

	if mailbox == "" {
		mailbox = "Sent"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		_ = c.Close()
		return nil, &ConnectError{Stage: "select", Host: host, Err: err}
	}

	return &Client{c: c, host: host}, nil
}

// FetchSince pulls up to max messages dated after since, newest first, with
// full raw bytes via BODY.PEEK[] so flags are untouched.
func (cl *Client) FetchSince(ctx context.Context, since time.Time, max int) ([]RawEmail, error) {
	if max <= 0 {
		max = 200
	}

	searchData, err := cl.c.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// newest first
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := cl.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]RawEmail, 0, len(uids))
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		re := RawEmail{UID: buf.UID, Date: buf.InternalDate}
		if b := buf.FindBodySection(bodyAll); b != nil {
			re.Raw = append([]byte(nil), b...)
		}
		out = append(out, re)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

// Close logs out and drops the connection.
func (cl *Client) Close() {
	if cl == nil || cl.c == nil {
		return
	}
	_ = cl.c.Logout().Wait()
	_ = cl.c.Close()
}
