package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/goldprice-backend/internal/httputil"
)

const DefaultGoldURL = "https://lsjr.ccb.com/clst/v1/preciousMetal/batchQueryDetail"

var (
	// ErrNetwork covers transport failures, non-2xx statuses and non-JSON bodies.
	ErrNetwork = errors.New("gold quote network error")
	// ErrBadResponse means the body was JSON but carried no usable price.
	ErrBadResponse = errors.New("gold quote bad response")
)

type GoldOptions struct {
	URL           string
	AppKey        string
	ProductID     string
	RegionCode    string
	InstitutionID string
	MaxAttempts   int
}

// GoldClient queries the bank precious-metal quote endpoint for the
// branch sell price of one product.
type GoldClient struct {
	httpClient *http.Client
	retry      httputil.RetryConfig
	url        string
	body       []byte
}

func NewGoldClient(opts GoldOptions) (*GoldClient, error) {
	if opts.URL == "" {
		opts.URL = DefaultGoldURL
	}
	retry := httputil.NoRetry
	if opts.MaxAttempts > 1 {
		retry = httputil.RetryConfig{
			MaxAttempts: opts.MaxAttempts,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		}
	}
	retry.Label = "FETCHER"

	body, err := json.Marshal(newQuoteRequest(opts))
	if err != nil {
		return nil, fmt.Errorf("marshal quote request: %w", err)
	}

	return &GoldClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      retry,
		url:        opts.URL,
		body:       body,
	}, nil
}

// FetchSellPrice returns data[0].Br_Sell_Prc from the upstream response.
func (c *GoldClient) FetchSellPrice(ctx context.Context) (decimal.Decimal, error) {
	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(c.body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decimal.Zero, fmt.Errorf("%w: upstream returned status %d", ErrNetwork, resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode: %w", ErrNetwork, err)
	}

	// Valid JSON of the wrong shape counts as a bad response.
	var data quoteResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return decimal.Zero, fmt.Errorf("%w: unexpected shape: %w", ErrBadResponse, err)
	}

	if len(data.Data) == 0 {
		return decimal.Zero, fmt.Errorf("%w: missing or empty data", ErrBadResponse)
	}

	// The price usually arrives as a string but numbers are accepted too.
	raw := strings.TrimSpace(strings.Trim(string(data.Data[0].SellPrice), `"`))
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: unparseable Br_Sell_Prc %q", ErrBadResponse, raw)
	}
	return price, nil
}

// --- wire types ---

type quoteRequest struct {
	AppKey  string     `json:"app-key"`
	ReqData reqPayload `json:"reqData"`
}

type reqPayload struct {
	Head reqHead `json:"head"`
	Data reqData `json:"data"`
}

type reqHead struct {
	NewFormat string `json:"newFormat"`
	TxCode    string `json:"SYS_TX_CODE"`
}

type reqData struct {
	Products []reqProduct `json:"products"`
}

type reqProduct struct {
	ProductID     string `json:"PM_PD_ID"`
	RegionCode    string `json:"Org_Inst_Rgon_Cd"`
	InstitutionID string `json:"Hdl_InsID"`
	SaleIndicator string `json:"AlSal_Ind"`
	ChannelType   string `json:"Txn_Itt_Chnl_TpCd"`
}

func newQuoteRequest(opts GoldOptions) quoteRequest {
	return quoteRequest{
		AppKey: opts.AppKey,
		ReqData: reqPayload{
			Head: reqHead{NewFormat: "1", TxCode: "public"},
			Data: reqData{Products: []reqProduct{{
				ProductID:     opts.ProductID,
				RegionCode:    opts.RegionCode,
				InstitutionID: opts.InstitutionID,
				SaleIndicator: "1",
				ChannelType:   "0006",
			}}},
		},
	}
}

type quoteResponse struct {
	Data []struct {
		SellPrice json.RawMessage `json:"Br_Sell_Prc"`
	} `json:"data"`
}
