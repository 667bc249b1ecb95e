package polymarket

// auth.go: Polymarket CLOB authenticated client.
//
// Implements two-level authentication:
//   L1: EIP-712 signature with wallet private key → derive API credentials
//   L2: HMAC-SHA256 signing of every authenticated request

import (
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	gomodel "github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"
)

const (
	polygonChainID = int64(137)

	// CLOB EIP-712 auth domain
	clobDomainName    = "ClobAuthDomain"
	clobDomainVersion = "1"
	// Message signed for deriving API keys
	clobAuthMessage = "This message attests that I control the given wallet"

	// Taker address: zero address = public order
	zeroAddress = "0x0000000000000000000000000000000000000000"
)

// usdcUnit is the number of micro-units per USDC (and per share).
var usdcUnit = decimal.NewFromInt(1_000_000)

// Credentials are the CLOB L2 API credentials.
type Credentials struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Complete reports whether all three fields are set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.Secret != "" && c.Passphrase != ""
}

// AuthClient wraps the base Client with L1/L2 auth capabilities.
type AuthClient struct {
	*Client
	privateKey   *ecdsa.PrivateKey
	address      common.Address
	orderBuilder builder.ExchangeOrderBuilder

	mu    sync.Mutex
	creds *Credentials
}

// NewAuthClient creates an authenticated trading client.
// privateKeyHex may carry a 0x prefix. When creds is complete it is used as
// is; otherwise credentials are derived via L1 on first use.
func NewAuthClient(base *Client, privateKeyHex string, creds Credentials) (*AuthClient, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("auth: invalid private key: %w", err)
	}

	ac := &AuthClient{
		Client:       base,
		privateKey:   key,
		address:      crypto.PubkeyToAddress(key.PublicKey),
		orderBuilder: builder.NewExchangeOrderBuilderImpl(big.NewInt(polygonChainID), nil),
	}
	if creds.Complete() {
		ac.creds = &creds
	}
	return ac, nil
}

// Address returns the wallet address.
func (ac *AuthClient) Address() string {
	return ac.address.Hex()
}

// EnsureCreds derives API credentials via L1 auth unless they are already set.
// Credentials are cached for the life of the client.
func (ac *AuthClient) EnsureCreds(ctx context.Context) (Credentials, error) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.creds != nil {
		return *ac.creds, nil
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig, err := ac.signClobAuth(ts, "0")
	if err != nil {
		return Credentials{}, fmt.Errorf("auth: sign l1: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ac.clobBase+"/auth/derive-api-key", nil)
	if err != nil {
		return Credentials{}, fmt.Errorf("auth: derive-api-key request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", ac.address.Hex())
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", ts)
	req.Header.Set("POLY_NONCE", "0")

	resp, err := ac.http.Do(req)
	if err != nil {
		return Credentials{}, fmt.Errorf("auth: derive-api-key: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Credentials{}, fmt.Errorf("auth: derive-api-key status %d: %s", resp.StatusCode, body)
	}

	var creds Credentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return Credentials{}, fmt.Errorf("auth: parse creds: %w", err)
	}
	if !creds.Complete() {
		return Credentials{}, fmt.Errorf("auth: derive-api-key returned incomplete credentials")
	}
	ac.creds = &creds
	return creds, nil
}

// EIP-712 type hashes (computed once).
var (
	eip712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId)",
	))
	clobAuthTypeHash = crypto.Keccak256Hash([]byte(
		"ClobAuth(address address,string timestamp,uint256 nonce,string message)",
	))
)

// clobAuthDomainSeparator computes the EIP-712 domain separator for ClobAuthDomain.
func clobAuthDomainSeparator() common.Hash {
	var buf []byte
	buf = append(buf, eip712DomainTypeHash.Bytes()...)
	buf = append(buf, crypto.Keccak256Hash([]byte(clobDomainName)).Bytes()...)
	buf = append(buf, crypto.Keccak256Hash([]byte(clobDomainVersion)).Bytes()...)
	buf = append(buf, common.LeftPadBytes(big.NewInt(polygonChainID).Bytes(), 32)...)
	return crypto.Keccak256Hash(buf)
}

// signClobAuth signs the ClobAuth EIP-712 typed data for L1 auth.
func (ac *AuthClient) signClobAuth(timestamp, nonce string) (string, error) {
	nonceInt, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		return "", fmt.Errorf("invalid nonce: %s", nonce)
	}

	var structBuf []byte
	structBuf = append(structBuf, clobAuthTypeHash.Bytes()...)
	structBuf = append(structBuf, common.LeftPadBytes(ac.address.Bytes(), 32)...)
	structBuf = append(structBuf, crypto.Keccak256Hash([]byte(timestamp)).Bytes()...)
	structBuf = append(structBuf, common.LeftPadBytes(nonceInt.Bytes(), 32)...)
	structBuf = append(structBuf, crypto.Keccak256Hash([]byte(clobAuthMessage)).Bytes()...)
	structHash := crypto.Keccak256Hash(structBuf)

	var rawBuf []byte
	rawBuf = append(rawBuf, 0x19, 0x01)
	rawBuf = append(rawBuf, clobAuthDomainSeparator().Bytes()...)
	rawBuf = append(rawBuf, structHash.Bytes()...)
	msgHash := crypto.Keccak256Hash(rawBuf)

	sig, err := crypto.Sign(msgHash.Bytes(), ac.privateKey)
	if err != nil {
		return "", err
	}
	sig[64] += 27
	return fmt.Sprintf("0x%x", sig), nil
}

// l2Headers returns the authenticated headers for an L2 API call.
func (ac *AuthClient) l2Headers(creds Credentials, method, path, body string) (map[string]string, error) {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	msg := ts + strings.ToUpper(method) + path + body

	secretBytes, err := base64.URLEncoding.DecodeString(creds.Secret)
	if err != nil {
		return nil, fmt.Errorf("auth: decode secret: %w", err)
	}

	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(msg))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"POLY_ADDRESS":    ac.address.Hex(),
		"POLY_SIGNATURE":  sig,
		"POLY_TIMESTAMP":  ts,
		"POLY_API_KEY":    creds.APIKey,
		"POLY_PASSPHRASE": creds.Passphrase,
	}, nil
}

// postL2 sends an authenticated POST. The body is marshalled once so the
// HMAC covers exactly the bytes on the wire.
func (ac *AuthClient) postL2(ctx context.Context, creds Credentials, path string, reqBody, out any) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	headers, err := ac.l2Headers(creds, http.MethodPost, path, string(b))
	if err != nil {
		return err
	}
	return ac.post(ctx, ac.clobLimiter, ac.clobBase+path, headers, json.RawMessage(b), out)
}

// orderAmounts computes the exact maker/taker micro-amounts for a BUY of
// shares at price: maker pays shares·price USDC, taker delivers shares.
func orderAmounts(price decimal.Decimal, shares int64) (maker, taker decimal.Decimal) {
	s := decimal.NewFromInt(shares)
	maker = s.Mul(price).Mul(usdcUnit).Truncate(0)
	taker = s.Mul(usdcUnit)
	return maker, taker
}

// buildSignedOrder creates an EIP-712 signed order for shares at price.
// price must already be rounded to the market tick.
func (ac *AuthClient) buildSignedOrder(tokenID string, price decimal.Decimal, shares int64, side gomodel.Side, negRisk bool) (*gomodel.SignedOrder, error) {
	maker, taker := orderAmounts(price, shares)
	if side == gomodel.SELL {
		maker, taker = taker, maker
	}
	if !maker.IsPositive() || !taker.IsPositive() {
		return nil, fmt.Errorf("invalid amounts: maker=%s taker=%s (price=%s shares=%d)", maker, taker, price, shares)
	}

	verifyingContract := gomodel.CTFExchange
	if negRisk {
		verifyingContract = gomodel.NegRiskCTFExchange
	}

	orderData := &gomodel.OrderData{
		Maker:         ac.address.Hex(),
		Taker:         zeroAddress,
		TokenId:       tokenID,
		MakerAmount:   maker.String(),
		TakerAmount:   taker.String(),
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        ac.address.Hex(),
		Expiration:    "0",
		Side:          side,
		SignatureType: gomodel.EOA,
	}

	signed, err := ac.orderBuilder.BuildSignedOrder(ac.privateKey, orderData, verifyingContract)
	if err != nil {
		return nil, fmt.Errorf("build signed order: %w", err)
	}
	return signed, nil
}
