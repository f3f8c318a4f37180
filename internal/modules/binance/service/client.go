package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"perp_bot/internal/modules/config"
	"perp_bot/pkg/apperr"
)

// Client: тонкий REST клиент Binance USD-M futures.
// Каждый вызов ограничен своим таймаутом, GET повторяется при транзиентных ошибках.
type Client struct {
	log *zap.Logger

	http       *http.Client
	limiter    *rate.Limiter
	baseURL    string
	wsURL      string
	apiKey     string
	apiSecret  string
	recvWindow int
	timeout    time.Duration
	getRetries uint64

	tickers      *TickerCache
	tickerMaxAge time.Duration

	now func() time.Time
}

func NewClient(cfg *config.Config, tickers *TickerCache, log *zap.Logger) *Client {
	bc := cfg.Binance
	limit := rate.Limit(bc.RateLimit)
	if bc.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &Client{
		log:          log.Named("binance"),
		http:         &http.Client{},
		limiter:      rate.NewLimiter(limit, 5),
		baseURL:      bc.BaseURL,
		wsURL:        bc.WSURL,
		apiKey:       bc.APIKey,
		apiSecret:    bc.APISecret,
		recvWindow:   bc.RecvWindow,
		timeout:      bc.RequestTimeout,
		getRetries:   2,
		tickers:      tickers,
		tickerMaxAge: bc.TickerMaxAge,
		now:          time.Now,
	}
}

func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// get: идемпотентное чтение, повторяем с backoff пока ошибка транзиентная.
func (c *Client) get(ctx context.Context, path string, params url.Values, signed bool, out any) error {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(300*time.Millisecond),
			backoff.WithMaxInterval(2*time.Second),
		), c.getRetries),
		ctx,
	)
	return backoff.Retry(func() error {
		err := c.do(ctx, http.MethodGet, path, cloneValues(params), signed, out)
		if err != nil && !apperr.Is(err, apperr.KindTransient) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	op := method + " " + path

	span, ctx := opentracing.StartSpanFromContext(ctx, "binance "+op)
	defer span.Finish()

	if err := c.limiter.Wait(ctx); err != nil {
		return apperr.Transient(err, op)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if params == nil {
		params = url.Values{}
	}
	query := ""
	if signed {
		params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
		if c.recvWindow > 0 {
			params.Set("recvWindow", strconv.Itoa(c.recvWindow))
		}
		query = params.Encode()
		query += "&signature=" + c.sign(query)
	} else {
		query = params.Encode()
	}

	u := c.baseURL + path
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return apperr.Transient(err, op)
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ext.Error.Set(span, true)
		return apperr.Transient(err, op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ext.Error.Set(span, true)
		return apperr.Transient(err, op)
	}
	ext.HTTPStatusCode.Set(span, uint16(resp.StatusCode))

	if resp.StatusCode/100 != 2 {
		ext.Error.Set(span, true)
		err := decodeError(resp.StatusCode, body, op)
		c.log.Warn("request failed", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Error(err))
		return err
	}
	if out == nil {
		return nil
	}
	if err := unmarshal(body, out); err != nil {
		return apperr.Transient(err, "decode "+op)
	}
	return nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
