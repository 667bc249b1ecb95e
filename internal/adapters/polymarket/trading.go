package polymarket

// trading.go: live leg placement via the Polymarket CLOB API.
//
// Implements ports.LegPlacer. Every leg is a GTC limit order; failures are
// returned as SubmitResult values, never as errors or panics.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"

	gomodel "github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const (
	minOrderPrice = 0.001
	maxOrderPrice = 0.999
)

var (
	defaultTick = decimal.RequireFromString("0.001")
	validTicks  = []decimal.Decimal{
		decimal.RequireFromString("0.1"),
		decimal.RequireFromString("0.01"),
		decimal.RequireFromString("0.001"),
		decimal.RequireFromString("0.0001"),
	}
)

// clobOrderRequest is the JSON body sent to POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
}

// LiveSubmitter places real orders. A nil auth client (no private key
// configured) makes every leg fail with a credentials message.
type LiveSubmitter struct {
	auth *AuthClient
}

// NewLiveSubmitter creates a LiveSubmitter. auth may be nil.
func NewLiveSubmitter(auth *AuthClient) *LiveSubmitter {
	return &LiveSubmitter{auth: auth}
}

// PlaceLeg implements ports.LegPlacer.
func (s *LiveSubmitter) PlaceLeg(ctx context.Context, leg domain.OrderLeg) domain.SubmitResult {
	if leg.TokenID == "" {
		return domain.SubmitResult{Success: false, Message: "token id missing"}
	}
	if s.auth == nil {
		return domain.SubmitResult{Success: false, Message: "polymarket credentials missing: PRIVATE_KEY is not set"}
	}

	tick, err := s.tickSize(ctx, leg.TokenID)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return domain.SubmitResult{Success: false, Message: fmt.Sprintf("market not found (token_id: %s)", leg.TokenID)}
		}
		slog.Warn("tick size lookup failed, using default", "token_id", leg.TokenID, "err", err)
		tick = defaultTick
	}

	negRisk, err := s.negRisk(ctx, leg.TokenID)
	if err != nil {
		slog.Warn("neg-risk lookup failed, assuming standard exchange", "token_id", leg.TokenID, "err", err)
	}

	price := roundToTick(leg.Price, tick)
	shares := orderShares(leg.SizeUSD, price)

	creds, err := s.auth.EnsureCreds(ctx)
	if err != nil {
		return domain.SubmitResult{Success: false, Message: err.Error()}
	}

	side := gomodel.BUY
	if leg.Side == domain.SideSell {
		side = gomodel.SELL
	}
	signed, err := s.auth.buildSignedOrder(leg.TokenID, price, shares, side, negRisk)
	if err != nil {
		return domain.SubmitResult{Success: false, Message: err.Error()}
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       leg.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          string(leg.Side),
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     creds.APIKey,
		OrderType: "GTC",
	}

	var resp clobOrderResponse
	if err := s.auth.postL2(ctx, creds, "/order", body, &resp); err != nil {
		return domain.SubmitResult{Success: false, Message: err.Error()}
	}
	if !resp.Success || resp.ErrorMsg != "" {
		msg := resp.ErrorMsg
		if msg == "" {
			msg = "order rejected"
		}
		return domain.SubmitResult{Success: false, Message: msg}
	}

	slog.Info("live order placed",
		"token_id", leg.TokenID,
		"price", price.String(),
		"shares", shares,
		"neg_risk", negRisk,
		"order_id", resp.OrderID,
	)
	return domain.SubmitResult{
		Success: true,
		Message: fmt.Sprintf("order sent orderID=%s status=%s", resp.OrderID, resp.Status),
	}
}

// tickSize returns the market tick; unknown values fall back to 0.001.
func (s *LiveSubmitter) tickSize(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	var resp tickSizeResponse
	u := s.auth.clobBase + "/tick-size?token_id=" + url.QueryEscape(tokenID)
	if err := s.auth.get(ctx, s.auth.clobLimiter, u, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("tick size: %w", err)
	}
	return toTick(resp.MinimumTickSize.String()), nil
}

func (s *LiveSubmitter) negRisk(ctx context.Context, tokenID string) (bool, error) {
	var resp negRiskResponse
	u := s.auth.clobBase + "/neg-risk?token_id=" + url.QueryEscape(tokenID)
	if err := s.auth.get(ctx, s.auth.clobLimiter, u, &resp); err != nil {
		return false, fmt.Errorf("neg-risk: %w", err)
	}
	return resp.NegRisk, nil
}

func toTick(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return defaultTick
	}
	for _, t := range validTicks {
		if d.Equal(t) {
			return t
		}
	}
	return defaultTick
}

// roundToTick clamps price to [0.001, 0.999] and rounds it to the tick,
// keeping it strictly inside (0, 1).
func roundToTick(price float64, tick decimal.Decimal) decimal.Decimal {
	p := decimal.NewFromFloat(math.Max(minOrderPrice, math.Min(maxOrderPrice, price)))
	rounded := p.Div(tick).Round(0).Mul(tick)
	if rounded.LessThan(tick) {
		rounded = tick
	}
	if ceiling := decimal.NewFromInt(1).Sub(tick); rounded.GreaterThan(ceiling) {
		rounded = ceiling
	}
	return rounded
}

// orderShares is max(1, floor(sizeUSD / price)).
func orderShares(sizeUSD float64, price decimal.Decimal) int64 {
	shares := decimal.NewFromFloat(sizeUSD).Div(price).Floor().IntPart()
	return max(1, shares)
}
