package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailedger/internal"
	"mailedger/internal/config"
	"mailedger/internal/connectors"
)

const resultsPerPage = 500

type Connector struct {
	service *gmail.Service
	limiter *connectors.RateLimiter
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(context.Background(), option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &Connector{service: svc, limiter: connectors.NewRateLimiter(cfg.GmailRateLimitRPS)}, nil
}

func (c *Connector) FetchSince(label string, after time.Time) ([]internal.EmailRecord, error) {
	labelID, err := c.labelID(label)
	if err != nil {
		return nil, err
	}

	// Gmail's after: operator is second-granular and inclusive; sub-second
	// stragglers are filtered by the parser's watermark check anyway.
	query := fmt.Sprintf("after:%d", after.Unix())

	var refs []*gmail.Message
	pageToken := ""
	for {
		call := c.service.Users.Messages.List("me").LabelIds(labelID).Q(query).MaxResults(resultsPerPage)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, err
		}
		refs = append(refs, resp.Messages...)
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	out := make([]internal.EmailRecord, 0, len(refs))
	for _, ref := range refs {
		if ref.Id == "" {
			continue
		}
		c.limiter.WaitTurn()
		resp, err := c.service.Users.Messages.Get("me", ref.Id).Format("raw").Do()
		if err != nil {
			return nil, err
		}
		if resp.Raw == "" {
			continue
		}
		raw, err := decodeBase64URL(resp.Raw)
		if err != nil {
			return nil, err
		}
		record, err := connectors.ParseEmail(raw, receivedTime(resp.InternalDate))
		if err != nil {
			return nil, fmt.Errorf("parse message %s: %w", ref.Id, err)
		}
		out = append(out, record)
	}

	return out, nil
}

func (c *Connector) labelID(name string) (string, error) {
	resp, err := c.service.Users.Labels.List("me").Do()
	if err != nil {
		return "", err
	}
	for _, label := range resp.Labels {
		if label.Name == name {
			return label.Id, nil
		}
	}
	return "", fmt.Errorf("gmail label not found: %s", name)
}

// receivedTime is the fallback for messages without a parsable Date header.
// Gmail's internal receive time is stable across runs; the wall clock is not,
// and a wall-clock stamp would sit past every future watermark and re-enter
// each cycle.
func receivedTime(internalDateMs int64) time.Time {
	if internalDateMs > 0 {
		return time.UnixMilli(internalDateMs).UTC()
	}
	return time.Now().UTC()
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}
